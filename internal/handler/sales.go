package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/enum"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

// SaleStore defines the database methods needed by sale handlers.
type SaleStore interface {
	ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.Sale, error)
}

// SaleHandler records sales and lists the sales ledger.
type SaleHandler struct {
	store  SaleStore
	ledger LedgerService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(store SaleStore, svc LedgerService) *SaleHandler {
	return &SaleHandler{store: store, ledger: svc}
}

// RegisterRoutes registers sale endpoints. Expected to be mounted at /api/sales.
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type recordSaleRequest struct {
	AgentID    string           `json:"agentId" validate:"required,uuid"`
	CustomerID string           `json:"customerId" validate:"omitempty,uuid"`
	SalePrice  *decimal.Decimal `json:"salePrice" validate:"required"`
	Note       string           `json:"note" validate:"max=1000"`
}

type saleResponse struct {
	ID                uuid.UUID  `json:"id"`
	AgentID           uuid.UUID  `json:"agentId"`
	CustomerID        *uuid.UUID `json:"customerId"`
	SalePrice         string     `json:"salePrice"`
	CommissionPercent string     `json:"commissionPercent"`
	CommissionAmount  string     `json:"commissionAmount"`
	Note              *string    `json:"note"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func toSaleResponse(s database.Sale) saleResponse {
	return saleResponse{
		ID:                s.ID,
		AgentID:           s.AgentID,
		CustomerID:        uuidPtr(s.CustomerID),
		SalePrice:         numericToString(s.SalePrice),
		CommissionPercent: numericToString(s.CommissionPercent),
		CommissionAmount:  numericToString(s.CommissionAmount),
		Note:              textPtr(s.Note),
		CreatedAt:         s.CreatedAt,
	}
}

// --- Handlers ---

// List returns sales most recent first, optionally for one agent.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := parsePage(q.Get("limit"), q.Get("offset"), defaultPageLimit, maxPageLimit)

	agentFilter, ok := agentFilterParam(w, q.Get("agentId"))
	if !ok {
		return
	}

	sales, err := h.store.ListSales(r.Context(), database.ListSalesParams{
		Limit:   limit,
		Offset:  offset,
		AgentID: agentFilter,
	})
	if err != nil {
		writeInternal(w, r, "list sales", err)
		return
	}

	rows := make([]saleResponse, len(sales))
	for i, s := range sales {
		rows[i] = toSaleResponse(s)
	}
	writeOK(w, map[string]any{"rows": rows})
}

// Create records a sale and credits the agent's commission.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, err.Error())
		return
	}

	in := ledger.RecordSaleRequest{
		AgentID:   uuid.MustParse(req.AgentID),
		SalePrice: *req.SalePrice,
		Note:      req.Note,
	}
	if req.CustomerID != "" {
		cid := uuid.MustParse(req.CustomerID)
		in.CustomerID = &cid
	}

	result, err := h.ledger.RecordSale(r.Context(), in)
	if err != nil {
		writeLedgerError(w, r, "record sale", err)
		return
	}

	writeOK(w, map[string]any{
		"id":                result.Sale.ID,
		"commissionPercent": numericToString(result.Sale.CommissionPercent),
		"commissionAmount":  numericToString(result.Sale.CommissionAmount),
		"balance":           result.Balance.StringFixed(ledger.MoneyPlaces),
		"sale":              toSaleResponse(result.Sale),
	})
}

// agentFilterParam parses an optional agentId query value.
func agentFilterParam(w http.ResponseWriter, s string) (pgtype.UUID, bool) {
	if s == "" {
		return pgtype.UUID{}, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, enum.ReasonValidationFailed, "agentId must be a valid UUID")
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: id, Valid: true}, true
}
