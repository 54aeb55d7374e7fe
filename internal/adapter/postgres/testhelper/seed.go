package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedItem inserts an item row and returns its id.
func SeedItem(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()

	suffix := uniqueSuffix()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO items (name, serial_number, inspection_period_days)
		 VALUES ($1, $2, $3) RETURNING id`,
		"Test rope "+suffix, "SN-"+suffix, 180,
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedItem insert item: %v", err)
	}

	return id
}
