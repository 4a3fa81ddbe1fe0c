package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/enum"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// AgentStore defines the database methods needed by agent handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AgentStore interface {
	CreateAgent(ctx context.Context, arg database.CreateAgentParams) (database.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (database.Agent, error)
	ListAgents(ctx context.Context, arg database.ListAgentsParams) ([]database.Agent, error)
	UpdateAgent(ctx context.Context, arg database.UpdateAgentParams) (database.Agent, error)
}

// LedgerService is the ledger surface used by handlers.
// Satisfied by *ledger.Service.
type LedgerService interface {
	RecordSale(ctx context.Context, req ledger.RecordSaleRequest) (*ledger.SaleResult, error)
	RecordPayout(ctx context.Context, req ledger.RecordPayoutRequest) (*ledger.PayoutResult, error)
	Report(ctx context.Context, agentID uuid.UUID, limit int32) (*ledger.AgentReport, error)
	Reconcile(ctx context.Context) ([]ledger.Drift, error)
}

// AgentHandler handles agent profile endpoints and the per-agent ledger views.
type AgentHandler struct {
	store  AgentStore
	ledger LedgerService
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(store AgentStore, svc LedgerService) *AgentHandler {
	return &AgentHandler{store: store, ledger: svc}
}

// RegisterRoutes registers agent endpoints on the given Chi router.
// Expected to be mounted at /api/agents.
func (h *AgentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Get("/report", h.Report)
		r.Post("/payouts", h.CreatePayout)
	})
}

// --- Request / Response types ---

type createAgentRequest struct {
	Name              string           `json:"name" validate:"required,max=200"`
	Phone             string           `json:"phone" validate:"max=50"`
	CommissionPercent *decimal.Decimal `json:"commissionPercent" validate:"required,percent"`
}

type updateAgentRequest struct {
	Name              *string          `json:"name" validate:"omitnil,min=1,max=200"`
	Phone             *string          `json:"phone" validate:"omitnil,max=50"`
	CommissionPercent *decimal.Decimal `json:"commissionPercent" validate:"omitnil,percent"`
}

type agentResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	CommissionPercent string    `json:"commissionPercent"`
	Balance           string    `json:"balance"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type totalsResponse struct {
	Earned        string `json:"earned"`
	Paid          string `json:"paid"`
	Balance       string `json:"balance"`
	LedgerBalance string `json:"ledgerBalance"`
	Consistent    bool   `json:"consistent"`
	SaleCount     int64  `json:"saleCount"`
	PayoutCount   int64  `json:"payoutCount"`
}

func toAgentResponse(a database.Agent) agentResponse {
	return agentResponse{
		ID:                a.ID,
		Name:              a.Name,
		Phone:             a.Phone,
		CommissionPercent: numericToString(a.CommissionPercent),
		Balance:           numericToString(a.Balance),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func toTotalsResponse(t ledger.Totals) totalsResponse {
	return totalsResponse{
		Earned:        t.Earned.StringFixed(ledger.MoneyPlaces),
		Paid:          t.Paid.StringFixed(ledger.MoneyPlaces),
		Balance:       t.Balance.StringFixed(ledger.MoneyPlaces),
		LedgerBalance: t.LedgerBalance.StringFixed(ledger.MoneyPlaces),
		Consistent:    t.Consistent,
		SaleCount:     t.SaleCount,
		PayoutCount:   t.PayoutCount,
	}
}

// --- Handlers ---

// List returns agents with their balances, newest first, with optional search.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(q.Get("limit"), q.Get("offset"), defaultPageLimit, maxPageLimit)

	var search pgtype.Text
	if s := strings.TrimSpace(q.Get("search")); s != "" {
		search = pgtype.Text{String: s, Valid: true}
	}

	agents, err := h.store.ListAgents(r.Context(), database.ListAgentsParams{
		Limit:  limit,
		Offset: offset,
		Search: search,
	})
	if err != nil {
		writeInternal(w, r, "list agents", err)
		return
	}

	rows := make([]agentResponse, len(agents))
	for i, a := range agents {
		rows[i] = toAgentResponse(a)
	}
	writeOK(w, map[string]any{"rows": rows})
}

// Get returns one agent with its cached balance.
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agentID, ok := agentIDParam(w, r)
	if !ok {
		return
	}

	agent, err := h.store.GetAgent(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, enum.ReasonAgentNotFound, "agent not found")
			return
		}
		writeInternal(w, r, "get agent", err)
		return
	}

	writeOK(w, map[string]any{"agent": toAgentResponse(agent)})
}

// Create registers a new agent with a zero balance.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, err.Error())
		return
	}

	agent, err := h.store.CreateAgent(r.Context(), database.CreateAgentParams{
		Name:              req.Name,
		Phone:             req.Phone,
		CommissionPercent: ledger.DecimalToNumeric(*req.CommissionPercent),
	})
	if err != nil {
		writeInternal(w, r, "create agent", err)
		return
	}

	writeOK(w, map[string]any{"id": agent.ID, "agent": toAgentResponse(agent)})
}

// Update changes name, phone or commission rate. Balance is never touched
// here, and a rate change applies only to sales recorded afterwards.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	agentID, ok := agentIDParam(w, r)
	if !ok {
		return
	}

	var req updateAgentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Phone != nil {
		trimmed := strings.TrimSpace(*req.Phone)
		req.Phone = &trimmed
	}
	if req.Name == nil && req.Phone == nil && req.CommissionPercent == nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, "at least one of name, phone, commissionPercent is required")
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, err.Error())
		return
	}

	params := database.UpdateAgentParams{ID: agentID}
	if req.Name != nil {
		params.Name = pgtype.Text{String: *req.Name, Valid: true}
	}
	if req.Phone != nil {
		params.Phone = pgtype.Text{String: *req.Phone, Valid: true}
	}
	if req.CommissionPercent != nil {
		params.CommissionPercent = ledger.DecimalToNumeric(*req.CommissionPercent)
	}

	agent, err := h.store.UpdateAgent(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, enum.ReasonAgentNotFound, "agent not found")
			return
		}
		writeInternal(w, r, "update agent", err)
		return
	}

	writeOK(w, map[string]any{"agent": toAgentResponse(agent)})
}

// Report returns the agent, ledger totals and recent history from one
// snapshot.
func (h *AgentHandler) Report(w http.ResponseWriter, r *http.Request) {
	agentID, ok := agentIDParam(w, r)
	if !ok {
		return
	}
	limit, _ := parsePage(r.URL.Query().Get("limit"), "", ledger.DefaultHistoryLimit, ledger.MaxHistoryLimit)

	report, err := h.ledger.Report(r.Context(), agentID, limit)
	if err != nil {
		writeLedgerError(w, r, "agent report", err)
		return
	}

	sales := make([]saleResponse, len(report.Sales))
	for i, s := range report.Sales {
		sales[i] = toSaleResponse(s)
	}
	payouts := make([]payoutResponse, len(report.Payouts))
	for i, p := range report.Payouts {
		payouts[i] = toPayoutResponse(p)
	}

	writeOK(w, map[string]any{
		"agent":   toAgentResponse(report.Agent),
		"totals":  toTotalsResponse(report.Totals),
		"sales":   sales,
		"payouts": payouts,
	})
}

// CreatePayout records a payout for the agent in the path. A body agentId,
// if present, must match it.
func (h *AgentHandler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	agentID, ok := agentIDParam(w, r)
	if !ok {
		return
	}

	var req recordPayoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AgentID == "" {
		req.AgentID = agentID.String()
	} else if bodyID, err := uuid.Parse(req.AgentID); err == nil && bodyID != agentID {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, "agentId does not match the agent in the path")
		return
	}

	recordPayout(w, r, h.ledger, req)
}

func agentIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonInvalidRequest, "invalid agent ID")
		return uuid.Nil, false
	}
	return id, true
}
