package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/enum"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

// PayoutStore defines the database methods needed by payout handlers.
type PayoutStore interface {
	ListPayouts(ctx context.Context, arg database.ListPayoutsParams) ([]database.Payout, error)
}

// PayoutHandler records payouts and lists the payout ledger.
type PayoutHandler struct {
	store  PayoutStore
	ledger LedgerService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(store PayoutStore, svc LedgerService) *PayoutHandler {
	return &PayoutHandler{store: store, ledger: svc}
}

// RegisterRoutes registers payout endpoints. Expected to be mounted at /api/payouts.
func (h *PayoutHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type recordPayoutRequest struct {
	AgentID string           `json:"agentId" validate:"required,uuid"`
	Amount  *decimal.Decimal `json:"amount" validate:"required"`
	Note    string           `json:"note" validate:"max=1000"`
}

type payoutResponse struct {
	ID        uuid.UUID `json:"id"`
	AgentID   uuid.UUID `json:"agentId"`
	Amount    string    `json:"amount"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPayoutResponse(p database.Payout) payoutResponse {
	return payoutResponse{
		ID:        p.ID,
		AgentID:   p.AgentID,
		Amount:    numericToString(p.Amount),
		Note:      textPtr(p.Note),
		CreatedAt: p.CreatedAt,
	}
}

// --- Handlers ---

// List returns payouts most recent first, optionally for one agent.
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(q.Get("limit"), q.Get("offset"), defaultPageLimit, maxPageLimit)

	agentFilter, ok := agentFilterParam(w, q.Get("agentId"))
	if !ok {
		return
	}

	payouts, err := h.store.ListPayouts(r.Context(), database.ListPayoutsParams{
		Limit:   limit,
		Offset:  offset,
		AgentID: agentFilter,
	})
	if err != nil {
		writeInternal(w, r, "list payouts", err)
		return
	}

	rows := make([]payoutResponse, len(payouts))
	for i, p := range payouts {
		rows[i] = toPayoutResponse(p)
	}
	writeOK(w, map[string]any{"rows": rows})
}

// Create records a payout against the agent's current balance.
func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordPayoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recordPayout(w, r, h.ledger, req)
}

func recordPayout(w http.ResponseWriter, r *http.Request, svc LedgerService, req recordPayoutRequest) {
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, err.Error())
		return
	}

	result, err := svc.RecordPayout(r.Context(), ledger.RecordPayoutRequest{
		AgentID: uuid.MustParse(req.AgentID),
		Amount:  *req.Amount,
		Note:    req.Note,
	})
	if err != nil {
		writeLedgerError(w, r, "record payout", err)
		return
	}

	writeOK(w, map[string]any{
		"id":      result.Payout.ID,
		"balance": result.Balance.StringFixed(ledger.MoneyPlaces),
		"payout":  toPayoutResponse(result.Payout),
	})
}
