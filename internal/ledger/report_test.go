package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_TotalsAndHistory(t *testing.T) {
	db := newMemDB()
	agent := db.addAgent("A", "10")
	other := db.addAgent("B", "50")
	svc := newTestService(db)
	ctx := context.Background()

	for _, price := range []string{"100", "250.50", "80"} {
		_, err := svc.RecordSale(ctx, ledger.RecordSaleRequest{AgentID: agent.ID, SalePrice: dec(price)})
		require.NoError(t, err)
	}
	_, err := svc.RecordSale(ctx, ledger.RecordSaleRequest{AgentID: other.ID, SalePrice: dec("1000")})
	require.NoError(t, err)
	_, err = svc.RecordPayout(ctx, ledger.RecordPayoutRequest{AgentID: agent.ID, Amount: dec("12.05")})
	require.NoError(t, err)

	report, err := svc.Report(ctx, agent.ID, 0)
	require.NoError(t, err)

	// 10 + 25.05 + 8 = 43.05 earned.
	assert.Equal(t, agent.ID, report.Agent.ID)
	assert.True(t, report.Totals.Earned.Equal(dec("43.05")))
	assert.True(t, report.Totals.Paid.Equal(dec("12.05")))
	assert.True(t, report.Totals.Balance.Equal(dec("31")))
	assert.True(t, report.Totals.LedgerBalance.Equal(dec("31")))
	assert.True(t, report.Totals.Consistent)
	assert.Equal(t, int64(3), report.Totals.SaleCount)
	assert.Equal(t, int64(1), report.Totals.PayoutCount)

	require.Len(t, report.Sales, 3)
	assert.True(t, ledger.NumericToDecimal(report.Sales[0].SalePrice).Equal(dec("80")), "most recent first")
	require.Len(t, report.Payouts, 1)

	require.Len(t, db.txOptions, 1)
	assert.Equal(t, pgx.RepeatableRead, db.txOptions[0].IsoLevel)
	assert.Equal(t, pgx.ReadOnly, db.txOptions[0].AccessMode)
}

func TestReport_LimitCapsHistoryNotTotals(t *testing.T) {
	db := newMemDB()
	agent := db.addAgent("A", "10")
	svc := newTestService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.RecordSale(ctx, ledger.RecordSaleRequest{AgentID: agent.ID, SalePrice: dec("10")})
		require.NoError(t, err)
	}

	report, err := svc.Report(ctx, agent.ID, 2)
	require.NoError(t, err)
	assert.Len(t, report.Sales, 2)
	assert.NotNil(t, report.Payouts)
	assert.Empty(t, report.Payouts)
	assert.Equal(t, int64(5), report.Totals.SaleCount)
	assert.True(t, report.Totals.Earned.Equal(dec("5")))
}

func TestReport_UnknownAgent(t *testing.T) {
	svc := newTestService(newMemDB())
	_, err := svc.Report(context.Background(), uuid.New(), 10)
	require.ErrorIs(t, err, ledger.ErrAgentNotFound)
}

func TestReport_FlagsInconsistentBalance(t *testing.T) {
	db := newMemDB()
	agent := db.addAgent("A", "10")
	db.setBalance(agent.ID, "3")
	svc := newTestService(db)

	report, err := svc.Report(context.Background(), agent.ID, 0)
	require.NoError(t, err)
	assert.False(t, report.Totals.Consistent)
	assert.True(t, report.Totals.LedgerBalance.IsZero())
}

func TestReconcile(t *testing.T) {
	db := newMemDB()
	good := db.addAgent("good", "10")
	bad := db.addAgent("bad", "10")
	svc := newTestService(db)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, ledger.RecordSaleRequest{AgentID: good.ID, SalePrice: dec("100")})
	require.NoError(t, err)

	drift, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	db.setBalance(bad.ID, "42")
	drift, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, bad.ID, drift[0].AgentID)
	assert.True(t, drift[0].Balance.Equal(dec("42")))
	assert.True(t, drift[0].LedgerBalance.IsZero())
}

func TestClampHistoryLimit(t *testing.T) {
	assert.Equal(t, int32(ledger.DefaultHistoryLimit), ledger.ClampHistoryLimit(0))
	assert.Equal(t, int32(ledger.DefaultHistoryLimit), ledger.ClampHistoryLimit(-3))
	assert.Equal(t, int32(7), ledger.ClampHistoryLimit(7))
	assert.Equal(t, int32(ledger.MaxHistoryLimit), ledger.ClampHistoryLimit(10_000))
}
