package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/gearledger/internal/transport/middleware"
)

// RouterDeps are the handlers NewRouter mounts. Metrics may be nil.
type RouterDeps struct {
	Events      *EventHandler
	Health      *HealthHandler
	Metrics     http.Handler
	MetricsPath string
	Logger      *slog.Logger
}

// NewRouter mounts the ledger API, health probes and metrics behind the
// request id, logging and recovery middleware.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, d.MetricsPath, d.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/items/{itemID}/events", func(items chi.Router) {
			items.Get("/", d.Events.History)
			items.Post("/", d.Events.Record)
			items.Get("/latest", d.Events.Latest)
			items.Post("/inspect", d.Events.Inspect)
		})
		api.Get("/events/{eventID}", d.Events.Get)
	})

	return middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Recovery(d.Logger),
	)(r)
}
