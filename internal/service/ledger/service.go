// Package ledger records equipment lifecycle events. It validates every
// candidate against the transition table, parent and uniqueness rules,
// and appends it within one unit of work so concurrent writers of the
// same item cannot both commit conflicting events.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/gearledger/internal/domain"
)

// Mode selects which rule layers Record enforces.
type Mode string

const (
	// ModeStrict enforces parent, uniqueness, timestamp ordering and the transition table.
	ModeStrict Mode = "strict"
	// ModeHierarchy enforces parent and uniqueness rules only.
	ModeHierarchy Mode = "hierarchy"
)

func (m Mode) String() string { return string(m) }

// ParseMode converts a config value into a Mode. Empty means ModeStrict.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict, "":
		return ModeStrict, nil
	case ModeHierarchy:
		return ModeHierarchy, nil
	default:
		return "", fmt.Errorf("unknown ledger mode %q", s)
	}
}

type eventRepo interface {
	Append(ctx context.Context, e domain.NewEvent) (*domain.Event, error)
	Latest(ctx context.Context, itemID int64) (*domain.Event, error)
	All(ctx context.Context, itemID int64) ([]domain.Event, error)
	Find(ctx context.Context, eventID int64) (*domain.Event, error)
	LockItem(ctx context.Context, itemID int64) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type recordObserver interface {
	Recorded(kind domain.EventKind, elapsed time.Duration)
	Rejected(kind domain.EventKind, reason domain.RejectionKind)
	StorageFailed(op string)
}

// Service is the only writer of the event ledger.
type Service struct {
	events eventRepo
	tx     txManager
	obs    recordObserver
	mode   Mode
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new ledger service. obs may be nil.
func NewService(
	log *slog.Logger,
	events eventRepo,
	tx txManager,
	obs recordObserver,
	mode Mode,
) *Service {
	if obs == nil {
		obs = nopObserver{}
	}
	if mode == "" {
		mode = ModeStrict
	}
	return &Service{
		events: events,
		tx:     tx,
		obs:    obs,
		mode:   mode,
		log:    log.With("service", "ledger"),
		now:    time.Now,
	}
}

// Mode reports the rule set the service enforces.
func (s *Service) Mode() Mode { return s.mode }

type nopObserver struct{}

func (nopObserver) Recorded(domain.EventKind, time.Duration)        {}
func (nopObserver) Rejected(domain.EventKind, domain.RejectionKind) {}
func (nopObserver) StorageFailed(string)                            {}
