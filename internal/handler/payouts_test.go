package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/handler"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

type mockPayoutStore struct {
	payouts []database.Payout
	last    database.ListPayoutsParams
}

func (m *mockPayoutStore) ListPayouts(_ context.Context, arg database.ListPayoutsParams) ([]database.Payout, error) {
	m.last = arg
	var result []database.Payout
	for _, p := range m.payouts {
		if arg.AgentID.Valid && p.AgentID != uuid.UUID(arg.AgentID.Bytes) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func setupPayoutRouter(store *mockPayoutStore, svc *mockLedger) *chi.Mux {
	h := handler.NewPayoutHandler(store, svc)
	r := chi.NewRouter()
	r.Route("/payouts", h.RegisterRoutes)
	return r
}

// fundedLedger pays out against a starting balance.
func fundedLedger(start string) *mockLedger {
	balance := decimal.RequireFromString(start)
	return &mockLedger{
		recordPayout: func(_ context.Context, req ledger.RecordPayoutRequest) (*ledger.PayoutResult, error) {
			if err := ledger.CheckMoney(req.Amount); err != nil {
				return nil, fmt.Errorf("%w: %w", ledger.ErrInvalidAmount, err)
			}
			if req.Amount.GreaterThan(balance) {
				return nil, ledger.ErrInsufficientBalance
			}
			balance = balance.Sub(req.Amount)
			return &ledger.PayoutResult{
				Payout:  database.Payout{ID: uuid.New(), AgentID: req.AgentID, Amount: ledger.DecimalToNumeric(req.Amount)},
				Balance: balance,
			}, nil
		},
	}
}

func TestPayoutCreate(t *testing.T) {
	svc := fundedLedger("150")
	router := setupPayoutRouter(&mockPayoutStore{}, svc)
	agentID := uuid.New()

	rr := doRequest(t, router, http.MethodPost, "/payouts", map[string]string{
		"agentId": agentID.String(),
		"amount":  "100",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["balance"] != "50.00" {
		t.Errorf("expected balance 50.00, got %v", resp["balance"])
	}
	payout := resp["payout"].(map[string]interface{})
	if payout["amount"] != "100.00" {
		t.Errorf("expected amount 100.00, got %v", payout["amount"])
	}
	if payout["agentId"] != agentID.String() {
		t.Errorf("expected agentId %s, got %v", agentID, payout["agentId"])
	}
}

func TestPayoutCreateInsufficientBalance(t *testing.T) {
	svc := fundedLedger("50")
	router := setupPayoutRouter(&mockPayoutStore{}, svc)

	rr := doRequest(t, router, http.MethodPost, "/payouts", map[string]string{
		"agentId": uuid.NewString(),
		"amount":  "100",
	})
	expectError(t, rr, http.StatusBadRequest, "insufficient_balance")
}

func TestPayoutCreateExactBalance(t *testing.T) {
	rr := doRequest(t, setupPayoutRouter(&mockPayoutStore{}, fundedLedger("50")), http.MethodPost, "/payouts",
		map[string]string{"agentId": uuid.NewString(), "amount": "50"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if resp := decodeResponse(t, rr); resp["balance"] != "0.00" {
		t.Errorf("expected balance 0.00, got %v", resp["balance"])
	}
}

func TestPayoutCreateInvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-1", "0.001"} {
		t.Run(amount, func(t *testing.T) {
			rr := doRequest(t, setupPayoutRouter(&mockPayoutStore{}, fundedLedger("100")), http.MethodPost, "/payouts",
				map[string]string{"agentId": uuid.NewString(), "amount": amount})
			expectError(t, rr, http.StatusBadRequest, "invalid_amount")
		})
	}
}

func TestPayoutCreateValidation(t *testing.T) {
	svc := fundedLedger("100")
	rr := doRequest(t, setupPayoutRouter(&mockPayoutStore{}, svc), http.MethodPost, "/payouts", `{"amount":"10"}`)
	expectError(t, rr, http.StatusBadRequest, "validation_failed")
	if len(svc.payouts) != 0 {
		t.Errorf("expected ledger not called, got %d calls", len(svc.payouts))
	}
}

func TestPayoutCreateAgentNotFound(t *testing.T) {
	svc := &mockLedger{
		recordPayout: func(context.Context, ledger.RecordPayoutRequest) (*ledger.PayoutResult, error) {
			return nil, ledger.ErrAgentNotFound
		},
	}
	rr := doRequest(t, setupPayoutRouter(&mockPayoutStore{}, svc), http.MethodPost, "/payouts",
		map[string]string{"agentId": uuid.NewString(), "amount": "10"})
	expectError(t, rr, http.StatusNotFound, "agent_not_found")
}

func TestPayoutList(t *testing.T) {
	agentID := uuid.New()
	store := &mockPayoutStore{payouts: []database.Payout{
		{ID: uuid.New(), AgentID: agentID, Amount: num("25")},
		{ID: uuid.New(), AgentID: uuid.New(), Amount: num("30")},
	}}

	rr := doRequest(t, setupPayoutRouter(store, &mockLedger{}), http.MethodGet, "/payouts?agentId="+agentID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	rows := decodeResponse(t, rr)["rows"].([]interface{})
	if len(rows) != 1 {
		t.Fatalf("expected 1 payout, got %d", len(rows))
	}
	if row := rows[0].(map[string]interface{}); row["amount"] != "25.00" {
		t.Errorf("expected amount 25.00, got %v", row["amount"])
	}
}
