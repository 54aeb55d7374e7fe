// Package event implements the append-only event ledger store using PostgreSQL.
// Queries are built with squirrel; payloads are stored as tagged JSONB.
package event

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/heartmarshall/gearledger/internal/adapter/postgres"
	"github.com/heartmarshall/gearledger/internal/domain"
)

const (
	eventsTable = "events"
	itemsTable  = "items"
)

var eventColumns = []string{"id", "item_id", "parent_id", "ts", "data"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides event persistence backed by PostgreSQL.
// It has no update or delete operations.
type Repo struct {
	db postgres.Querier
}

// New creates a new event repository. db is usually a *pgxpool.Pool; when
// the context carries a transaction started by postgres.TxManager, that
// transaction is used instead.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Append inserts a new event and returns it with its generated id.
func (r *Repo) Append(ctx context.Context, e domain.NewEvent) (*domain.Event, error) {
	data, err := domain.EncodeEventData(e.Data)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Insert(eventsTable).
		Columns("item_id", "parent_id", "ts", "data").
		Values(e.ItemID, e.ParentID, e.Timestamp.UTC(), data).
		Suffix("RETURNING id, item_id, parent_id, ts, data").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert event: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.db)

	ev, err := scanEvent(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "item", e.ItemID)
	}

	return ev, nil
}

// LockItem takes a row lock on the item for the rest of the enclosing
// transaction, serializing writers of the same item.
// Returns domain.ErrNotFound if the item does not exist.
func (r *Repo) LockItem(ctx context.Context, itemID int64) error {
	query, args, err := psql.Select("id").
		From(itemsTable).
		Where(sq.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock item: %w", err)
	}

	var id int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return postgres.MapError(err, "item", itemID)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Latest returns the event with the greatest timestamp for the item.
// Returns domain.ErrNotFound if the item has no events.
func (r *Repo) Latest(ctx context.Context, itemID int64) (*domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		From(eventsTable).
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("ts DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest event: %w", err)
	}

	ev, err := scanEvent(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "item", itemID)
	}

	return ev, nil
}

// All returns every event of the item ordered by timestamp, then id.
// Returns an empty slice if the item has no events.
func (r *Repo) All(ctx context.Context, itemID int64) ([]domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		From(eventsTable).
		Where(sq.Eq{"item_id": itemID}).
		OrderBy("ts ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list events: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "item", itemID)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, postgres.MapError(err, "item", itemID)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "item", itemID)
	}

	return events, nil
}

// Find returns a single event by id.
// Returns domain.ErrNotFound if no such event exists.
func (r *Repo) Find(ctx context.Context, eventID int64) (*domain.Event, error) {
	query, args, err := psql.Select(eventColumns...).
		From(eventsTable).
		Where(sq.Eq{"id": eventID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find event: %w", err)
	}

	ev, err := scanEvent(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "event", eventID)
	}

	return ev, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		ev   domain.Event
		ts   time.Time
		data []byte
	)

	if err := row.Scan(&ev.ID, &ev.ItemID, &ev.ParentID, &ts, &data); err != nil {
		return nil, err
	}

	payload, err := domain.DecodeEventData(data)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", ev.ID, err)
	}

	ev.Timestamp = ts.UTC()
	ev.Data = payload
	return &ev, nil
}
