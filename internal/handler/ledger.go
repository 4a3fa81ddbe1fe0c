package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/licensedesk/api/internal/ledger"
)

// LedgerHandler exposes operator views over the whole ledger.
type LedgerHandler struct {
	ledger LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: svc}
}

// RegisterRoutes registers ledger endpoints. Expected to be mounted at /api/ledger.
func (h *LedgerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reconcile", h.Reconcile)
}

type driftResponse struct {
	AgentID       uuid.UUID `json:"agentId"`
	Name          string    `json:"name"`
	Balance       string    `json:"balance"`
	LedgerBalance string    `json:"ledgerBalance"`
}

// Reconcile lists agents whose cached balance differs from the ledger sum.
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	drift, err := h.ledger.Reconcile(r.Context())
	if err != nil {
		writeLedgerError(w, r, "reconcile ledger", err)
		return
	}

	rows := make([]driftResponse, len(drift))
	for i, d := range drift {
		rows[i] = driftResponse{
			AgentID:       d.AgentID,
			Name:          d.Name,
			Balance:       d.Balance.StringFixed(ledger.MoneyPlaces),
			LedgerBalance: d.LedgerBalance.StringFixed(ledger.MoneyPlaces),
		}
	}
	writeOK(w, map[string]any{"rows": rows, "consistent": len(rows) == 0})
}
