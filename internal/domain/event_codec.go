package domain

import (
	"encoding/json"
	"fmt"
)

// eventDataJSON is the self-describing persisted form of EventData:
// a "kind" tag plus the variant-specific fields.
// Fields may only be added, never renamed, so stored history stays decodable.
type eventDataJSON struct {
	Kind      EventKind         `json:"kind"`
	Inspector *string           `json:"inspector,omitempty"`
	Result    *InspectionResult `json:"result,omitempty"`
	Comment   *string           `json:"comment,omitempty"`
	Borrower  *string           `json:"borrower,omitempty"`
	Validator *string           `json:"validator,omitempty"`
}

// EncodeEventData serializes a payload into its tagged JSON form.
func EncodeEventData(data EventData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("encode event data: %w", ErrUnknownEventKind)
	}

	j := eventDataJSON{Kind: data.Kind()}

	switch d := data.(type) {
	case Manufactured, PutIntoService, Retired, Lost:
	case Inspected:
		j.Inspector = &d.Inspector
		j.Result = &d.Result
		j.Comment = d.Comment
	case Borrowed:
		j.Borrower = &d.Borrower
		j.Validator = &d.Validator
	case Returned:
		j.Validator = &d.Validator
	default:
		return nil, fmt.Errorf("encode event data %T: %w", data, ErrUnknownEventKind)
	}

	return json.Marshal(j)
}

// DecodeEventData parses the tagged JSON form back into a payload.
// Unknown kinds fail with ErrUnknownEventKind.
func DecodeEventData(raw []byte) (EventData, error) {
	var j eventDataJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("decode event data: %w", err)
	}

	switch j.Kind {
	case EventKindManufactured:
		return Manufactured{}, nil
	case EventKindPutIntoService:
		return PutIntoService{}, nil
	case EventKindInspected:
		d := Inspected{
			Inspector: deref(j.Inspector),
			Comment:   j.Comment,
		}
		if j.Result != nil {
			d.Result = *j.Result
		}
		return d, nil
	case EventKindBorrowed:
		return Borrowed{Borrower: deref(j.Borrower), Validator: deref(j.Validator)}, nil
	case EventKindReturned:
		return Returned{Validator: deref(j.Validator)}, nil
	case EventKindRetired:
		return Retired{}, nil
	case EventKindLost:
		return Lost{}, nil
	}

	return nil, fmt.Errorf("decode event data: kind %q: %w", j.Kind, ErrUnknownEventKind)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
