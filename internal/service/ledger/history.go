package ledger

import (
	"context"
	"errors"

	"github.com/heartmarshall/gearledger/internal/domain"
)

// Latest returns the item's most recent event by timestamp.
// Returns an error wrapping domain.ErrNotFound if the item has no events.
func (s *Service) Latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	var latest *domain.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ev, err := s.events.Latest(ctx, itemID)
		if err != nil {
			return err
		}
		latest = ev
		return nil
	})
	if err != nil {
		return nil, s.readFailed("latest event", err)
	}
	return latest, nil
}

// History returns the item's events in timestamp order.
// An item without events yields an empty slice.
func (s *Service) History(ctx context.Context, itemID int64) ([]domain.Event, error) {
	var history []domain.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		events, err := s.events.All(ctx, itemID)
		if err != nil {
			return err
		}
		history = events
		return nil
	})
	if err != nil {
		return nil, s.readFailed("list events", err)
	}
	if history == nil {
		history = []domain.Event{}
	}
	return history, nil
}

// Get returns a single event by id.
// Returns an error wrapping domain.ErrNotFound if it does not exist.
func (s *Service) Get(ctx context.Context, eventID int64) (*domain.Event, error) {
	var found *domain.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		ev, err := s.events.Find(ctx, eventID)
		if err != nil {
			return err
		}
		found = ev
		return nil
	})
	if err != nil {
		return nil, s.readFailed("find event", err)
	}
	return found, nil
}

// readFailed passes a missing record through and wraps everything else
// as a storage failure.
func (s *Service) readFailed(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.obs.StorageFailed(op)
	return &domain.StorageError{Op: op, Err: err}
}
