package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/heartmarshall/gearledger/internal/adapter/postgres"
	"github.com/heartmarshall/gearledger/internal/app"
	"github.com/heartmarshall/gearledger/internal/config"
	"github.com/heartmarshall/gearledger/internal/domain"
	"github.com/heartmarshall/gearledger/internal/service/ledger"
)

// env is what every command needs after the config is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func load(c *cli.Command) (*env, error) {
	cfg, err := config.LoadPath(c.String("config"))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: app.NewLogger(cfg.Log)}, nil
}

// withLedger loads the config, wires the ledger and runs fn with it.
func withLedger(ctx context.Context, c *cli.Command, fn func(e *env, svc *ledger.Service) error) error {
	e, err := load(c)
	if err != nil {
		return err
	}

	comps, err := app.Build(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	return fn(e, comps.Ledger)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := load(c)
			if err != nil {
				return err
			}

			comps, err := app.Build(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			return app.Serve(ctx, e.cfg, e.logger, comps.Handler(e.cfg, e.logger))
		},
	}
}

func migrateCommand() *cli.Command {
	withMigrator := func(ctx context.Context, c *cli.Command, fn func(m *postgres.Migrator) error) error {
		e, err := load(c)
		if err != nil {
			return err
		}
		if e.cfg.Database.DSN == "" {
			return errors.New("migrate: database.dsn is not set")
		}

		m, err := postgres.NewMigrator(ctx, e.cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(m)
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the PostgreSQL schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply pending migrations",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withMigrator(ctx, c, func(m *postgres.Migrator) error {
						applied, err := m.Up(ctx)
						if err != nil {
							return err
						}
						return printJSON(c, map[string]any{"applied": applied})
					})
				},
			},
			{
				Name:  "status",
				Usage: "List migrations and whether they are applied",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withMigrator(ctx, c, func(m *postgres.Migrator) error {
						states, err := m.Status(ctx)
						if err != nil {
							return err
						}
						return printJSON(c, toMigrationOutput(states))
					})
				},
			},
		},
	}
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a lifecycle event for an item",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "item", Required: true, Usage: "item id"},
			&cli.StringFlag{Name: "kind", Required: true, Usage: "Manufactured, PutIntoService, Inspected, Borrowed, Returned, Retired or Lost"},
			&cli.StringFlag{Name: "ts", Usage: "event time, RFC 3339 (defaults to now when ledger.default_timestamp_now is set)"},
			&cli.Int64Flag{Name: "parent", Usage: "parent event id (the Borrowed event a Returned closes)"},
			&cli.StringFlag{Name: "borrower"},
			&cli.StringFlag{Name: "validator"},
			&cli.StringFlag{Name: "inspector"},
			&cli.StringFlag{Name: "result", Usage: "Good, NormalWear, Warning or Danger"},
			&cli.StringFlag{Name: "comment"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withLedger(ctx, c, func(e *env, svc *ledger.Service) error {
				input, err := recordInputFromFlags(c, e.cfg.Ledger.DefaultTimestampNow, time.Now)
				if err != nil {
					return err
				}

				ev, err := svc.Record(ctx, input)
				if err != nil {
					var rej *domain.RejectionError
					if errors.As(err, &rej) {
						if perr := printJSON(c, toRejectionOutput(rej)); perr != nil {
							return perr
						}
					}
					return err
				}

				out, err := toEventOutput(*ev)
				if err != nil {
					return err
				}
				return printJSON(c, out)
			})
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Print the events of an item in timestamp order with its derived state",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "item", Required: true, Usage: "item id"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withLedger(ctx, c, func(_ *env, svc *ledger.Service) error {
				itemID := c.Int64("item")
				events, err := svc.History(ctx, itemID)
				if err != nil {
					return err
				}
				out, err := toHistoryOutput(itemID, events)
				if err != nil {
					return err
				}
				return printJSON(c, out)
			})
		},
	}
}

func latestCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Print the most recent event of an item",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "item", Required: true, Usage: "item id"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withLedger(ctx, c, func(_ *env, svc *ledger.Service) error {
				ev, err := svc.Latest(ctx, c.Int64("item"))
				if err != nil {
					return err
				}
				out, err := toEventOutput(*ev)
				if err != nil {
					return err
				}
				return printJSON(c, out)
			})
		},
	}
}

func eventCommand() *cli.Command {
	return &cli.Command{
		Name:  "event",
		Usage: "Print one event by id",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Required: true, Usage: "event id"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withLedger(ctx, c, func(_ *env, svc *ledger.Service) error {
				ev, err := svc.Get(ctx, c.Int64("id"))
				if err != nil {
					return err
				}
				out, err := toEventOutput(*ev)
				if err != nil {
					return err
				}
				return printJSON(c, out)
			})
		},
	}
}

// flagSource is the subset of *cli.Command recordInputFromFlags reads.
type flagSource interface {
	String(name string) string
	Int64(name string) int64
	IsSet(name string) bool
}

func recordInputFromFlags(f flagSource, defaultNow bool, now func() time.Time) (ledger.RecordInput, error) {
	input := ledger.RecordInput{ItemID: f.Int64("item")}

	switch ts := f.String("ts"); {
	case ts != "":
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return input, &domain.ValidationError{Errors: []domain.FieldError{
				{Field: "ts", Message: "must be an RFC 3339 timestamp"},
			}}
		}
		input.Timestamp = t
	case defaultNow:
		input.Timestamp = now()
	}

	if f.IsSet("parent") {
		parent := f.Int64("parent")
		input.ParentID = &parent
	}

	data, err := eventDataFromFlags(f)
	if err != nil {
		return input, err
	}
	input.Data = data
	return input, nil
}

func eventDataFromFlags(f flagSource) (domain.EventData, error) {
	switch kind := domain.EventKind(f.String("kind")); kind {
	case domain.EventKindManufactured:
		return domain.Manufactured{}, nil
	case domain.EventKindPutIntoService:
		return domain.PutIntoService{}, nil
	case domain.EventKindInspected:
		d := domain.Inspected{
			Inspector: f.String("inspector"),
			Result:    domain.InspectionResult(f.String("result")),
		}
		if f.IsSet("comment") {
			comment := f.String("comment")
			d.Comment = &comment
		}
		return d, nil
	case domain.EventKindBorrowed:
		return domain.Borrowed{Borrower: f.String("borrower"), Validator: f.String("validator")}, nil
	case domain.EventKindReturned:
		return domain.Returned{Validator: f.String("validator")}, nil
	case domain.EventKindRetired:
		return domain.Retired{}, nil
	case domain.EventKindLost:
		return domain.Lost{}, nil
	default:
		return nil, &domain.ValidationError{Errors: []domain.FieldError{
			{Field: "kind", Message: fmt.Sprintf("unknown event kind %q", kind)},
		}}
	}
}

func exitCode(err error) int {
	var (
		rej *domain.RejectionError
		ve  *domain.ValidationError
	)
	switch {
	case errors.As(err, &rej):
		return 2
	case errors.As(err, &ve):
		return 3
	default:
		return 1
	}
}
