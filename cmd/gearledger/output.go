package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/heartmarshall/gearledger/internal/adapter/postgres"
	"github.com/heartmarshall/gearledger/internal/domain"
)

type eventOutput struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	ParentID  *int64          `json:"parent_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Data      json.RawMessage `json:"data"`
}

type historyOutput struct {
	ItemID int64         `json:"item_id"`
	State  stateOutput   `json:"state"`
	Events []eventOutput `json:"events"`
}

type stateOutput struct {
	Last      *domain.EventKind `json:"last,omitempty"`
	InService bool              `json:"in_service"`
	OnLoan    bool              `json:"on_loan"`
	Terminal  bool              `json:"terminal"`
	OpenLoan  *int64            `json:"open_loan,omitempty"`
}

type rejectionOutput struct {
	Rejection   string            `json:"rejection"`
	Kind        string            `json:"kind"`
	From        *domain.EventKind `json:"from,omitempty"`
	ParentID    *int64            `json:"parent_id,omitempty"`
	Conflicting *int64            `json:"conflicting_event,omitempty"`
	Message     string            `json:"message"`
}

type migrationOutput struct {
	Version int64  `json:"version"`
	Source  string `json:"source"`
	Applied bool   `json:"applied"`
}

func toEventOutput(e domain.Event) (eventOutput, error) {
	data, err := domain.EncodeEventData(e.Data)
	if err != nil {
		return eventOutput{}, err
	}
	return eventOutput{
		ID:        e.ID,
		ItemID:    e.ItemID,
		ParentID:  e.ParentID,
		Timestamp: e.Timestamp,
		Data:      data,
	}, nil
}

func toHistoryOutput(itemID int64, events []domain.Event) (historyOutput, error) {
	st := domain.StateOf(events)
	out := historyOutput{
		ItemID: itemID,
		State: stateOutput{
			Last:      st.Last,
			InService: st.InService,
			OnLoan:    st.OnLoan,
			Terminal:  st.Terminal,
		},
		Events: make([]eventOutput, 0, len(events)),
	}
	if st.OpenLoan != nil {
		out.State.OpenLoan = &st.OpenLoan.ID
	}

	for _, e := range events {
		eo, err := toEventOutput(e)
		if err != nil {
			return historyOutput{}, err
		}
		out.Events = append(out.Events, eo)
	}
	return out, nil
}

func toRejectionOutput(rej *domain.RejectionError) rejectionOutput {
	out := rejectionOutput{
		Rejection: rej.Reason.String(),
		Kind:      rej.Kind.String(),
		From:      rej.From,
		ParentID:  rej.ParentID,
		Message:   rej.Error(),
	}
	if rej.Conflicting != nil {
		out.Conflicting = &rej.Conflicting.ID
	}
	return out
}

func toMigrationOutput(states []postgres.MigrationState) []migrationOutput {
	out := make([]migrationOutput, 0, len(states))
	for _, s := range states {
		out = append(out, migrationOutput{Version: s.Version, Source: s.Source, Applied: s.Applied})
	}
	return out
}

func printJSON(c *cli.Command, v any) error {
	w := c.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
