package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/gearledger/internal/domain"
	"github.com/heartmarshall/gearledger/internal/service/ledger"
)

// ledgerService defines the minimal interface needed by EventHandler.
type ledgerService interface {
	Record(ctx context.Context, input ledger.RecordInput) (*domain.Event, error)
	Latest(ctx context.Context, itemID int64) (*domain.Event, error)
	History(ctx context.Context, itemID int64) ([]domain.Event, error)
	Get(ctx context.Context, eventID int64) (*domain.Event, error)
}

// EventHandler serves the item event ledger endpoints.
type EventHandler struct {
	svc        ledgerService
	log        *slog.Logger
	defaultNow bool
	now        func() time.Time
}

// NewEventHandler creates an EventHandler. When defaultNow is set, a
// request without a timestamp is recorded at the current time.
func NewEventHandler(svc ledgerService, logger *slog.Logger, defaultNow bool) *EventHandler {
	return &EventHandler{
		svc:        svc,
		log:        logger.With("handler", "events"),
		defaultNow: defaultNow,
		now:        time.Now,
	}
}

type recordRequest struct {
	Timestamp *time.Time      `json:"ts"`
	ParentID  *int64          `json:"parent_id"`
	Data      json.RawMessage `json:"data"`
}

type inspectRequest struct {
	Inspector string                  `json:"inspector"`
	Result    domain.InspectionResult `json:"result"`
	Comment   *string                 `json:"comment"`
	Timestamp *time.Time              `json:"ts"`
}

type eventResponse struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	ParentID  *int64          `json:"parent_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Data      json.RawMessage `json:"data"`
}

type historyResponse struct {
	ItemID int64           `json:"item_id"`
	State  stateResponse   `json:"state"`
	Events []eventResponse `json:"events"`
}

type stateResponse struct {
	Last      *domain.EventKind `json:"last,omitempty"`
	InService bool              `json:"in_service"`
	OnLoan    bool              `json:"on_loan"`
	Terminal  bool              `json:"terminal"`
	OpenLoan  *int64            `json:"open_loan,omitempty"`
}

type rejectionResponse struct {
	Error       string            `json:"error"`
	Rejection   string            `json:"rejection"`
	Kind        string            `json:"kind"`
	From        *domain.EventKind `json:"from,omitempty"`
	ParentID    *int64            `json:"parent_id,omitempty"`
	Conflicting *int64            `json:"conflicting_event,omitempty"`
}

type validationResponse struct {
	Error  string           `json:"error"`
	Fields []fieldErrorBody `json:"fields"`
}

type fieldErrorBody struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Record handles POST /api/items/{itemID}/events.
func (h *EventHandler) Record(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var data domain.EventData
	if len(req.Data) > 0 && string(req.Data) != "null" {
		var err error
		if data, err = domain.DecodeEventData(req.Data); err != nil {
			writeError(w, http.StatusBadRequest, "invalid event data: "+err.Error())
			return
		}
	}

	h.record(w, r, ledger.RecordInput{
		ItemID:    itemID,
		Timestamp: h.timestamp(req.Timestamp),
		ParentID:  req.ParentID,
		Data:      data,
	})
}

// Inspect handles POST /api/items/{itemID}/events/inspect.
func (h *EventHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	var req inspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.record(w, r, ledger.RecordInput{
		ItemID:    itemID,
		Timestamp: h.timestamp(req.Timestamp),
		Data: domain.Inspected{
			Inspector: req.Inspector,
			Result:    req.Result,
			Comment:   req.Comment,
		},
	})
}

func (h *EventHandler) record(w http.ResponseWriter, r *http.Request, input ledger.RecordInput) {
	ev, err := h.svc.Record(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp, err := toEventResponse(*ev)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// History handles GET /api/items/{itemID}/events.
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	events, err := h.svc.History(r.Context(), itemID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := historyResponse{
		ItemID: itemID,
		State:  toStateResponse(domain.StateOf(events)),
		Events: make([]eventResponse, 0, len(events)),
	}
	for _, e := range events {
		er, err := toEventResponse(e)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		resp.Events = append(resp.Events, er)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Latest handles GET /api/items/{itemID}/events/latest.
func (h *EventHandler) Latest(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	ev, err := h.svc.Latest(r.Context(), itemID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeEvent(w, r, ev)
}

// Get handles GET /api/events/{eventID}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}

	ev, err := h.svc.Get(r.Context(), eventID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeEvent(w, r, ev)
}

func (h *EventHandler) writeEvent(w http.ResponseWriter, r *http.Request, ev *domain.Event) {
	resp, err := toEventResponse(*ev)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *EventHandler) timestamp(ts *time.Time) time.Time {
	switch {
	case ts != nil:
		return *ts
	case h.defaultNow:
		return h.now()
	default:
		return time.Time{}
	}
}

func (h *EventHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rej *domain.RejectionError
		ve  *domain.ValidationError
	)

	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, toRejectionResponse(rej))
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, toValidationResponse(ve))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "concurrent update, retry")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, context.Canceled):
		h.log.DebugContext(r.Context(), "request cancelled", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func toEventResponse(e domain.Event) (eventResponse, error) {
	data, err := domain.EncodeEventData(e.Data)
	if err != nil {
		return eventResponse{}, err
	}
	return eventResponse{
		ID:        e.ID,
		ItemID:    e.ItemID,
		ParentID:  e.ParentID,
		Timestamp: e.Timestamp,
		Data:      data,
	}, nil
}

func toStateResponse(st domain.ItemState) stateResponse {
	resp := stateResponse{
		Last:      st.Last,
		InService: st.InService,
		OnLoan:    st.OnLoan,
		Terminal:  st.Terminal,
	}
	if st.OpenLoan != nil {
		resp.OpenLoan = &st.OpenLoan.ID
	}
	return resp
}

func toRejectionResponse(rej *domain.RejectionError) rejectionResponse {
	resp := rejectionResponse{
		Error:     rej.Error(),
		Rejection: rej.Reason.String(),
		Kind:      rej.Kind.String(),
		From:      rej.From,
		ParentID:  rej.ParentID,
	}
	if rej.Conflicting != nil {
		resp.Conflicting = &rej.Conflicting.ID
	}
	return resp
}

func toValidationResponse(ve *domain.ValidationError) validationResponse {
	resp := validationResponse{
		Error:  ve.Error(),
		Fields: make([]fieldErrorBody, 0, len(ve.Errors)),
	}
	for _, fe := range ve.Errors {
		resp.Fields = append(resp.Fields, fieldErrorBody{Field: fe.Field, Message: fe.Message})
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
