// Package memory implements the event ledger store in process memory.
// It mirrors the PostgreSQL adapter: per-item row locks held for the
// duration of a transaction, all-or-nothing commits, monotonic ids, and
// the same domain errors for missing rows and uniqueness violations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/heartmarshall/gearledger/internal/domain"
)

// Operation names accepted by InjectFault.
const (
	OpAppend = "append"
	OpLatest = "latest"
	OpAll    = "all"
	OpFind   = "find"
	OpLock   = "lock"
	OpCommit = "commit"
)

// Store is a concurrency-safe in-memory event store.
type Store struct {
	mu         sync.Mutex
	items      map[int64]struct{}
	locks      map[int64]chan struct{}
	byItem     map[int64][]domain.Event
	byID       map[int64]domain.Event
	nextID     int64
	nextItemID int64
	faults     map[string]error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		items:  make(map[int64]struct{}),
		locks:  make(map[int64]chan struct{}),
		byItem: make(map[int64][]domain.Event),
		byID:   make(map[int64]domain.Event),
		faults: make(map[string]error),
	}
}

// CreateItem registers a new item and returns its id.
func (s *Store) CreateItem() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	for {
		if _, taken := s.items[s.nextItemID]; !taken {
			break
		}
		s.nextItemID++
	}
	s.items[s.nextItemID] = struct{}{}
	return s.nextItemID
}

// EnsureItem registers an item with a caller-chosen id. It is idempotent.
func (s *Store) EnsureItem(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = struct{}{}
}

// Ping reports whether the store can serve requests. It fails only when
// ctx is already done.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InjectFault makes the next call of op fail with err.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// takeFault must be called with s.mu held.
func (s *Store) takeFault(op string) error {
	err, ok := s.faults[op]
	if !ok {
		return nil
	}
	delete(s.faults, op)
	return err
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type txCtxKey struct{}

type tx struct {
	store  *Store
	staged []domain.Event
	held   map[int64]chan struct{}
}

func txFromCtx(ctx context.Context, s *Store) (*tx, bool) {
	t, ok := ctx.Value(txCtxKey{}).(*tx)
	if !ok || t.store != s {
		return nil, false
	}
	return t, true
}

// RunInTx executes fn as one unit of work. Appends made by fn become
// visible to other callers only if fn returns nil and ctx is still live
// at commit time; otherwise they are discarded. Item locks taken with
// LockItem are released when the unit of work ends. A call made inside
// another RunInTx joins the outer unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromCtx(ctx, s); ok {
		return fn(ctx)
	}

	t := &tx{store: s, held: make(map[int64]chan struct{})}
	defer t.release()

	if err := fn(context.WithValue(ctx, txCtxKey{}, t)); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpCommit); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	for _, e := range t.staged {
		s.insertLocked(e)
	}
	return nil
}

func (t *tx) release() {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

// insertLocked must be called with s.mu held.
func (s *Store) insertLocked(e domain.Event) {
	s.byID[e.ID] = e
	events := append(s.byItem[e.ItemID], e)
	sort.SliceStable(events, func(i, j int) bool { return before(events[i], events[j]) })
	s.byItem[e.ItemID] = events
}

func before(a, b domain.Event) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID < b.ID
	}
	return a.Timestamp.Before(b.Timestamp)
}

// ---------------------------------------------------------------------------
// Store operations
// ---------------------------------------------------------------------------

// LockItem blocks until the caller's unit of work holds the item's lock,
// or ctx is done. Outside RunInTx it only checks that the item exists.
// Returns domain.ErrNotFound if the item does not exist.
func (s *Store) LockItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	if err := s.takeFault(OpLock); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("item %d: %w", itemID, err)
	}
	if _, ok := s.items[itemID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}
	ch, ok := s.locks[itemID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[itemID] = ch
	}
	s.mu.Unlock()

	t, inTx := txFromCtx(ctx, s)
	if !inTx {
		return nil
	}
	if _, held := t.held[itemID]; held {
		return nil
	}

	select {
	case ch <- struct{}{}:
		t.held[itemID] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("item %d: %w", itemID, ctx.Err())
	}
}

// Append stores a new event with the next id. Inside RunInTx the event is
// staged until commit. Returns domain.ErrNotFound if the item or parent
// does not exist, domain.ErrAlreadyExists if a unique kind is already present.
func (s *Store) Append(ctx context.Context, e domain.NewEvent) (*domain.Event, error) {
	if e.Data == nil {
		return nil, fmt.Errorf("item %d: %w", e.ItemID, domain.ErrUnknownEventKind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpAppend); err != nil {
		return nil, fmt.Errorf("item %d: %w", e.ItemID, err)
	}
	if _, ok := s.items[e.ItemID]; !ok {
		return nil, fmt.Errorf("item %d: %w", e.ItemID, domain.ErrNotFound)
	}

	t, inTx := txFromCtx(ctx, s)
	visible := s.visibleLocked(t, e.ItemID)

	if e.ParentID != nil {
		if _, ok := s.findLocked(t, *e.ParentID); !ok {
			return nil, fmt.Errorf("item %d: parent %d: %w", e.ItemID, *e.ParentID, domain.ErrNotFound)
		}
	}
	if e.Data.Kind().IsUnique() {
		for _, existing := range visible {
			if existing.Kind() == e.Data.Kind() {
				return nil, fmt.Errorf("item %d: %w", e.ItemID, domain.ErrAlreadyExists)
			}
		}
	}

	// Ids are consumed even if the unit of work later rolls back, like a sequence.
	s.nextID++
	ev := domain.Event{
		ID:        s.nextID,
		ItemID:    e.ItemID,
		ParentID:  copyID(e.ParentID),
		Timestamp: e.Timestamp.UTC(),
		Data:      e.Data,
	}

	if inTx {
		t.staged = append(t.staged, ev)
	} else {
		s.insertLocked(ev)
	}

	out := ev
	return &out, nil
}

// Latest returns the event with the greatest timestamp for the item.
// Returns domain.ErrNotFound if the item has no events.
func (s *Store) Latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpLatest); err != nil {
		return nil, fmt.Errorf("item %d: %w", itemID, err)
	}

	t, _ := txFromCtx(ctx, s)
	events := s.visibleLocked(t, itemID)
	if len(events) == 0 {
		return nil, fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}

	latest := events[len(events)-1]
	return &latest, nil
}

// All returns every event of the item ordered by timestamp, then id.
func (s *Store) All(ctx context.Context, itemID int64) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpAll); err != nil {
		return nil, fmt.Errorf("item %d: %w", itemID, err)
	}

	t, _ := txFromCtx(ctx, s)
	return s.visibleLocked(t, itemID), nil
}

// Find returns a single event by id.
// Returns domain.ErrNotFound if no such event exists.
func (s *Store) Find(ctx context.Context, eventID int64) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault(OpFind); err != nil {
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}

	t, _ := txFromCtx(ctx, s)
	ev, ok := s.findLocked(t, eventID)
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, domain.ErrNotFound)
	}
	return &ev, nil
}

// visibleLocked returns a fresh, ordered copy of the committed events of
// the item plus those staged by t. Must be called with s.mu held.
func (s *Store) visibleLocked(t *tx, itemID int64) []domain.Event {
	committed := s.byItem[itemID]
	out := make([]domain.Event, 0, len(committed))
	out = append(out, committed...)

	if t != nil {
		for _, e := range t.staged {
			if e.ItemID == itemID {
				out = append(out, e)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })
	}
	return out
}

// findLocked must be called with s.mu held.
func (s *Store) findLocked(t *tx, eventID int64) (domain.Event, bool) {
	if ev, ok := s.byID[eventID]; ok {
		return ev, true
	}
	if t != nil {
		for _, e := range t.staged {
			if e.ID == eventID {
				return e, true
			}
		}
	}
	return domain.Event{}, false
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
