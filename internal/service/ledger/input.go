package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/gearledger/internal/domain"
)

const (
	maxNameLen    = 200
	maxCommentLen = 2000
)

// RecordInput holds the parameters for recording an event.
type RecordInput struct {
	ItemID    int64
	Timestamp time.Time
	ParentID  *int64
	Data      domain.EventData
}

// Validate checks all fields and collects all errors.
// Ledger rules (transitions, parents, uniqueness) are not checked here.
func (i RecordInput) Validate() error {
	var errs []domain.FieldError

	if i.ItemID <= 0 {
		errs = append(errs, domain.FieldError{Field: "item_id", Message: "must be positive"})
	}
	if i.Timestamp.IsZero() {
		errs = append(errs, domain.FieldError{Field: "ts", Message: "required"})
	}
	if i.ParentID != nil && *i.ParentID <= 0 {
		errs = append(errs, domain.FieldError{Field: "parent_id", Message: "must be positive"})
	}

	switch d := i.Data.(type) {
	case nil:
		errs = append(errs, domain.FieldError{Field: "data", Message: "required"})
	case domain.Inspected:
		errs = appendName(errs, "inspector", d.Inspector)
		if !d.Result.IsValid() {
			errs = append(errs, domain.FieldError{Field: "result", Message: "must be one of Good, NormalWear, Warning, Danger"})
		}
		if d.Comment != nil && len(strings.TrimSpace(*d.Comment)) > maxCommentLen {
			errs = append(errs, domain.FieldError{Field: "comment", Message: "max 2000 characters"})
		}
	case domain.Borrowed:
		errs = appendName(errs, "borrower", d.Borrower)
		errs = appendName(errs, "validator", d.Validator)
	case domain.Returned:
		errs = appendName(errs, "validator", d.Validator)
	case domain.Manufactured, domain.PutIntoService, domain.Retired, domain.Lost:
	default:
		errs = append(errs, domain.FieldError{Field: "data", Message: fmt.Sprintf("unsupported payload type %T", d)})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func appendName(errs []domain.FieldError, field, value string) []domain.FieldError {
	v := strings.TrimSpace(value)
	if v == "" {
		return append(errs, domain.FieldError{Field: field, Message: "required"})
	}
	if len(v) > maxNameLen {
		return append(errs, domain.FieldError{Field: field, Message: "max 200 characters"})
	}
	return errs
}

// normalized returns a copy with trimmed names, a UTC timestamp truncated
// to the microsecond precision of the store and an empty comment dropped.
func (i RecordInput) normalized() RecordInput {
	i.Timestamp = i.Timestamp.UTC().Truncate(time.Microsecond)

	switch d := i.Data.(type) {
	case domain.Inspected:
		d.Inspector = strings.TrimSpace(d.Inspector)
		d.Comment = trimOrNil(d.Comment)
		i.Data = d
	case domain.Borrowed:
		d.Borrower = strings.TrimSpace(d.Borrower)
		d.Validator = strings.TrimSpace(d.Validator)
		i.Data = d
	case domain.Returned:
		d.Validator = strings.TrimSpace(d.Validator)
		i.Data = d
	}
	return i
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
