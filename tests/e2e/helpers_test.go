//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/gearledger/internal/adapter/postgres"
	"github.com/heartmarshall/gearledger/internal/adapter/postgres/event"
	"github.com/heartmarshall/gearledger/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/gearledger/internal/metrics"
	"github.com/heartmarshall/gearledger/internal/service/ledger"
	"github.com/heartmarshall/gearledger/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by
// a real PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T, mode ledger.Mode) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))

	txm := postgres.NewTxManager(pool, pgx.Serializable)
	m := metrics.NewLedger()
	svc := ledger.NewService(logger, event.New(pool), txm, m, mode)

	router := rest.NewRouter(rest.RouterDeps{
		Events:      rest.NewEventHandler(svc, logger, false),
		Health:      rest.NewHealthHandler(pool, "test-version"),
		Metrics:     m.Handler(),
		MetricsPath: "/metrics",
		Logger:      logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() { srv.Close() })

	return &testServer{URL: srv.URL, Client: srv.Client(), Pool: pool}
}

// eventsURL is the collection URL of an item's events.
func (ts *testServer) eventsURL(itemID int64) string {
	return fmt.Sprintf("%s/api/items/%d/events", ts.URL, itemID)
}

// postJSON sends body to url and returns status + decoded body.
func (ts *testServer) postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.Client.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeBody(t, resp.Body)
}

// getJSON fetches url and returns status + decoded body.
func (ts *testServer) getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.Client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode, decodeBody(t, resp.Body)
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body
}

// eventID extracts the numeric id of an event response.
func eventID(t *testing.T, body map[string]any) int64 {
	t.Helper()
	id, ok := body["id"].(float64)
	require.True(t, ok, "expected numeric id in %v", body)
	return int64(id)
}
