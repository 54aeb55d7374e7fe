package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/gearledger/internal/domain"
)

// Record validates the candidate event and appends it in one unit of work.
//
// Rejections are returned as *domain.RejectionError, failures of the store
// or transaction as *domain.StorageError, bad input as *domain.ValidationError.
// Nothing is persisted unless the returned error is nil. When ctx already
// carries a unit of work, Record joins it and the event becomes durable only
// when the caller's unit of work commits.
func (s *Service) Record(ctx context.Context, input RecordInput) (*domain.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.normalized()

	start := s.now()
	kind := input.Data.Kind()

	var recorded *domain.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.LockItem(ctx, input.ItemID); err != nil {
			return storageError("lock item", err)
		}

		if err := s.checkParent(ctx, input); err != nil {
			return err
		}

		var latest *domain.Event
		if s.mode == ModeStrict {
			var err error
			if latest, err = s.latest(ctx, input.ItemID); err != nil {
				return err
			}
			if err := checkTerminal(input, latest); err != nil {
				return err
			}
		}
		if err := s.checkUnique(ctx, input); err != nil {
			return err
		}
		if s.mode == ModeStrict {
			if err := checkChain(input, latest); err != nil {
				return err
			}
		}

		ev, err := s.events.Append(ctx, domain.NewEvent{
			ItemID:    input.ItemID,
			ParentID:  input.ParentID,
			Timestamp: input.Timestamp,
			Data:      input.Data,
		})
		if errors.Is(err, domain.ErrAlreadyExists) {
			// The unique index caught a writer the checks above could not see.
			// A retry observes the committed event and is rejected.
			return storageError("append event", fmt.Errorf("%w: %w", domain.ErrConflict, err))
		}
		if err != nil {
			return storageError("append event", err)
		}
		recorded = ev
		return nil
	})
	if err != nil {
		return nil, s.recordFailed(ctx, input, err)
	}

	s.obs.Recorded(kind, s.now().Sub(start))
	s.log.InfoContext(ctx, "event recorded",
		slog.Int64("item_id", recorded.ItemID),
		slog.Int64("event_id", recorded.ID),
		slog.String("kind", kind.String()),
	)

	return recorded, nil
}

// checkParent enforces parent presence and resolution.
func (s *Service) checkParent(ctx context.Context, input RecordInput) error {
	kind := input.Data.Kind()
	want, needsParent := kind.RequiredParent()

	switch {
	case needsParent && input.ParentID == nil:
		return reject(domain.RejectionParentRequired, input, nil)
	case !needsParent && input.ParentID != nil:
		return reject(domain.RejectionUnexpectedParent, input, nil)
	case !needsParent:
		return nil
	}

	parent, err := s.events.Find(ctx, *input.ParentID)
	if errors.Is(err, domain.ErrNotFound) {
		return reject(domain.RejectionParentNotFound, input, nil)
	}
	if err != nil {
		return storageError("find parent", err)
	}

	// A parent on another item is reported as missing for this one.
	if parent.ItemID != input.ItemID {
		return reject(domain.RejectionParentNotFound, input, nil)
	}
	if parent.Kind() != want {
		return reject(domain.RejectionInvalidParentKind, input, parent)
	}
	return nil
}

// checkUnique rejects a second event of a unique kind.
func (s *Service) checkUnique(ctx context.Context, input RecordInput) error {
	kind := input.Data.Kind()
	if !kind.IsUnique() {
		return nil
	}

	history, err := s.events.All(ctx, input.ItemID)
	if err != nil {
		return storageError("list events", err)
	}

	for i := range history {
		if history[i].Kind() == kind {
			return reject(domain.RejectionDuplicateUniqueEvent, input, &history[i])
		}
	}
	return nil
}

// latest returns the item's most recent event, or nil if it has none.
func (s *Service) latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	latest, err := s.events.Latest(ctx, itemID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, storageError("latest event", err)
	}
	return latest, nil
}

// checkTerminal rejects any candidate once the item is Retired or Lost,
// before uniqueness is considered.
func checkTerminal(input RecordInput, latest *domain.Event) error {
	if latest == nil || !latest.Kind().IsTerminal() {
		return nil
	}
	from := latest.Kind()
	rej := reject(domain.RejectionIllegalTransition, input, latest)
	rej.From = &from
	return rej
}

// checkChain validates the candidate against the item's latest event:
// its timestamp must be strictly later and its kind an allowed successor.
func checkChain(input RecordInput, latest *domain.Event) error {
	var last *domain.EventKind
	if latest != nil {
		if !input.Timestamp.After(latest.Timestamp) {
			return reject(domain.RejectionOutOfOrderTimestamp, input, latest)
		}
		k := latest.Kind()
		last = &k
	}

	if !domain.CanTransition(last, input.Data.Kind()) {
		rej := reject(domain.RejectionIllegalTransition, input, latest)
		rej.From = last
		return rej
	}
	return nil
}

// recordFailed classifies a failed unit of work, reports it to the
// observer and returns the typed error. Errors that are neither rejections
// nor store failures come from the transaction itself (begin or commit).
func (s *Service) recordFailed(ctx context.Context, input RecordInput, err error) error {
	var rej *domain.RejectionError
	if errors.As(err, &rej) {
		s.obs.Rejected(rej.Kind, rej.Reason)
		s.log.DebugContext(ctx, "event rejected",
			slog.Int64("item_id", input.ItemID),
			slog.String("kind", rej.Kind.String()),
			slog.String("reason", rej.Reason.String()),
		)
		return rej
	}

	var se *domain.StorageError
	if !errors.As(err, &se) {
		se = &domain.StorageError{Op: "commit", Err: err}
	}
	s.obs.StorageFailed(se.Op)
	return se
}

func reject(reason domain.RejectionKind, input RecordInput, conflicting *domain.Event) *domain.RejectionError {
	return &domain.RejectionError{
		Reason:      reason,
		Kind:        input.Data.Kind(),
		Timestamp:   input.Timestamp,
		ParentID:    input.ParentID,
		Conflicting: conflicting,
	}
}

func storageError(op string, err error) error {
	return &domain.StorageError{Op: op, Err: err}
}
