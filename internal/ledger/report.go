package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// History limits for Report.
const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 500
)

// Totals summarises an agent's ledger. Balance is the cached column;
// LedgerBalance is Earned - Paid recomputed from ledger rows.
type Totals struct {
	Earned        decimal.Decimal
	Paid          decimal.Decimal
	Balance       decimal.Decimal
	LedgerBalance decimal.Decimal
	Consistent    bool
	SaleCount     int64
	PayoutCount   int64
}

// AgentReport is an agent profile with totals and recent history, all read
// from one snapshot.
type AgentReport struct {
	Agent   database.Agent
	Totals  Totals
	Sales   []database.Sale
	Payouts []database.Payout
}

// Drift is an agent whose cached balance disagrees with its ledger rows.
type Drift struct {
	AgentID       uuid.UUID
	Name          string
	Balance       decimal.Decimal
	LedgerBalance decimal.Decimal
}

// ClampHistoryLimit applies the default and maximum to a requested limit.
func ClampHistoryLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}

var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Report returns the agent, its totals and its most recent sales and payouts.
// No row lock is taken. Totals cover the whole ledger; histories are capped
// at limit rows each.
func (s *Service) Report(ctx context.Context, agentID uuid.UUID, limit int32) (*AgentReport, error) {
	limit = ClampHistoryLimit(limit)

	tx, err := s.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	agent, err := store.GetAgent(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("agent %s: %w", agentID, ErrAgentNotFound)
		}
		return nil, classify("get agent", err)
	}

	sums, err := store.GetAgentLedgerTotals(ctx, agentID)
	if err != nil {
		return nil, classify("ledger totals", err)
	}

	filter := pgtype.UUID{Bytes: agentID, Valid: true}
	sales, err := store.ListSales(ctx, database.ListSalesParams{Limit: limit, AgentID: filter})
	if err != nil {
		return nil, classify("list sales", err)
	}
	payouts, err := store.ListPayouts(ctx, database.ListPayoutsParams{Limit: limit, AgentID: filter})
	if err != nil {
		return nil, classify("list payouts", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit report", err)
	}

	earned := NumericToDecimal(sums.TotalEarned)
	paid := NumericToDecimal(sums.TotalPaid)
	balance := NumericToDecimal(agent.Balance)
	ledgerBalance := earned.Sub(paid)

	if sales == nil {
		sales = []database.Sale{}
	}
	if payouts == nil {
		payouts = []database.Payout{}
	}

	return &AgentReport{
		Agent: agent,
		Totals: Totals{
			Earned:        earned,
			Paid:          paid,
			Balance:       balance,
			LedgerBalance: ledgerBalance,
			Consistent:    balance.Equal(ledgerBalance),
			SaleCount:     sums.SaleCount,
			PayoutCount:   sums.PayoutCount,
		},
		Sales:   sales,
		Payouts: payouts,
	}, nil
}

// Reconcile lists every agent whose cached balance differs from the sum of
// its ledger rows. A healthy ledger returns an empty slice.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	tx, err := s.pool.BeginTx(ctx, snapshotTx)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := s.newStore(tx).ListBalanceDrift(ctx)
	if err != nil {
		return nil, classify("list drift", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit reconcile", err)
	}

	drift := make([]Drift, 0, len(rows))
	for _, r := range rows {
		drift = append(drift, Drift{
			AgentID:       r.ID,
			Name:          r.Name,
			Balance:       NumericToDecimal(r.Balance),
			LedgerBalance: NumericToDecimal(r.LedgerBalance),
		})
	}
	if len(drift) > 0 {
		s.log.Warn("ledger drift detected", zap.Int("agents", len(drift)))
	}
	return drift, nil
}
