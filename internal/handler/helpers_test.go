package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

// --- Mock ledger service ---

type mockLedger struct {
	recordSale   func(ctx context.Context, req ledger.RecordSaleRequest) (*ledger.SaleResult, error)
	recordPayout func(ctx context.Context, req ledger.RecordPayoutRequest) (*ledger.PayoutResult, error)
	report       func(ctx context.Context, agentID uuid.UUID, limit int32) (*ledger.AgentReport, error)
	reconcile    func(ctx context.Context) ([]ledger.Drift, error)

	sales   []ledger.RecordSaleRequest
	payouts []ledger.RecordPayoutRequest
}

func (m *mockLedger) RecordSale(ctx context.Context, req ledger.RecordSaleRequest) (*ledger.SaleResult, error) {
	m.sales = append(m.sales, req)
	return m.recordSale(ctx, req)
}

func (m *mockLedger) RecordPayout(ctx context.Context, req ledger.RecordPayoutRequest) (*ledger.PayoutResult, error) {
	m.payouts = append(m.payouts, req)
	return m.recordPayout(ctx, req)
}

func (m *mockLedger) Report(ctx context.Context, agentID uuid.UUID, limit int32) (*ledger.AgentReport, error) {
	return m.report(ctx, agentID, limit)
}

func (m *mockLedger) Reconcile(ctx context.Context) ([]ledger.Drift, error) {
	return m.reconcile(ctx)
}

// --- Helpers ---

func num(s string) pgtype.Numeric {
	return ledger.DecimalToNumeric(decimal.RequireFromString(s))
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, reason string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["success"] != false {
		t.Errorf("expected success false, got %v", resp["success"])
	}
	if resp["error"] != reason {
		t.Errorf("expected error %q, got %v", reason, resp["error"])
	}
}
