package ledger_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/shopspring/decimal"
)

// --- In-memory ledger store ---

// memDB keeps committed state. Each agent has its own row lock, held by a
// memTx from GetAgentForUpdate until Commit or Rollback, like SELECT ... FOR
// UPDATE. Writes stay inside the memTx until Commit.
type memDB struct {
	mu        sync.Mutex
	agents    map[uuid.UUID]database.Agent
	customers map[uuid.UUID]database.Customer
	sales     []database.Sale
	payouts   []database.Payout
	rowLocks  map[uuid.UUID]*sync.Mutex

	beginErr  error
	lockErr   error
	commitErr error
	saleErr   error

	begins       int
	lockTimeouts []string
	txOptions    []pgx.TxOptions
}

func newMemDB() *memDB {
	return &memDB{
		agents:    make(map[uuid.UUID]database.Agent),
		customers: make(map[uuid.UUID]database.Customer),
		rowLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (db *memDB) addAgent(name, percent string) database.Agent {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := database.Agent{
		ID:                uuid.New(),
		Name:              name,
		CommissionPercent: ledger.DecimalToNumeric(decimal.RequireFromString(percent)),
		Balance:           ledger.DecimalToNumeric(decimal.Zero),
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	db.agents[a.ID] = a
	db.rowLocks[a.ID] = &sync.Mutex{}
	return a
}

func (db *memDB) addCustomer(agentID uuid.UUID) database.Customer {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := database.Customer{
		ID:           uuid.New(),
		CustomerName: "Acme",
		ProductID:    "PRO",
		LicenseKey:   uuid.NewString(),
		AgentID:      pgtype.UUID{Bytes: agentID, Valid: true},
		CreatedAt:    time.Now(),
	}
	db.customers[c.ID] = c
	return c
}

func (db *memDB) setPercent(id uuid.UUID, percent string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.agents[id]
	a.CommissionPercent = ledger.DecimalToNumeric(decimal.RequireFromString(percent))
	db.agents[id] = a
}

func (db *memDB) setBalance(id uuid.UUID, balance string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a := db.agents[id]
	a.Balance = ledger.DecimalToNumeric(decimal.RequireFromString(balance))
	db.agents[id] = a
}

func (db *memDB) balance(id uuid.UUID) decimal.Decimal {
	db.mu.Lock()
	defer db.mu.Unlock()
	return ledger.NumericToDecimal(db.agents[id].Balance)
}

func (db *memDB) counts() (sales, payouts int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.sales), len(db.payouts)
}

// ledgerSum is SUM(commission_amount) - SUM(amount) over committed rows plus
// any rows passed in. Caller holds db.mu.
func (db *memDB) ledgerSum(id uuid.UUID, sales []database.Sale, payouts []database.Payout) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range append(append([]database.Sale{}, db.sales...), sales...) {
		if s.AgentID == id {
			sum = sum.Add(ledger.NumericToDecimal(s.CommissionAmount))
		}
	}
	for _, p := range append(append([]database.Payout{}, db.payouts...), payouts...) {
		if p.AgentID == id {
			sum = sum.Sub(ledger.NumericToDecimal(p.Amount))
		}
	}
	return sum
}

func (db *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.begins++
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return &memTx{db: db, balances: make(map[uuid.UUID]decimal.Decimal)}, nil
}

func (db *memDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	db.mu.Lock()
	db.txOptions = append(db.txOptions, opts)
	db.mu.Unlock()
	return db.Begin(ctx)
}

func newMemStore(db database.DBTX) ledger.Store { return db.(*memTx) }

// --- memTx ---

type memTx struct {
	db       *memDB
	held     []*sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
	sales    []database.Sale
	payouts  []database.Payout
	done     bool
}

func (tx *memTx) release() {
	for _, l := range tx.held {
		l.Unlock()
	}
	tx.held = nil
	tx.done = true
}

func (tx *memTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	defer tx.release()

	db := tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.commitErr != nil {
		return db.commitErr
	}
	// Deferred balance check, as the constraint trigger does at commit.
	for id, bal := range tx.balances {
		if !bal.Equal(db.ledgerSum(id, tx.sales, tx.payouts)) {
			return &pgconn.PgError{Code: "23514", Message: "agent balance does not match ledger"}
		}
	}
	for id, bal := range tx.balances {
		a := db.agents[id]
		a.Balance = ledger.DecimalToNumeric(bal)
		db.agents[id] = a
	}
	db.sales = append(db.sales, tx.sales...)
	db.payouts = append(db.payouts, tx.payouts...)
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.release()
	return nil
}

func (tx *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (tx *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (tx *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (tx *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (tx *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (tx *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (tx *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (tx *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (tx *memTx) Conn() *pgx.Conn { panic("not implemented") }

// --- ledger.Store ---

func (tx *memTx) SetLockTimeout(ctx context.Context, timeout string) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	tx.db.lockTimeouts = append(tx.db.lockTimeouts, timeout)
	return nil
}

func (tx *memTx) GetAgent(ctx context.Context, id uuid.UUID) (database.Agent, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	a, ok := tx.db.agents[id]
	if !ok {
		return database.Agent{}, pgx.ErrNoRows
	}
	if bal, ok := tx.balances[id]; ok {
		a.Balance = ledger.DecimalToNumeric(bal)
	}
	return a, nil
}

func (tx *memTx) GetAgentForUpdate(ctx context.Context, id uuid.UUID) (database.Agent, error) {
	tx.db.mu.Lock()
	lockErr := tx.db.lockErr
	lock := tx.db.rowLocks[id]
	tx.db.mu.Unlock()

	if lockErr != nil {
		return database.Agent{}, lockErr
	}
	if lock == nil {
		return database.Agent{}, pgx.ErrNoRows
	}
	lock.Lock()
	tx.held = append(tx.held, lock)
	return tx.GetAgent(ctx, id)
}

func (tx *memTx) GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	c, ok := tx.db.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (tx *memTx) CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error) {
	tx.db.mu.Lock()
	saleErr := tx.db.saleErr
	tx.db.mu.Unlock()
	if saleErr != nil {
		return database.Sale{}, saleErr
	}
	s := database.Sale{
		ID:                uuid.New(),
		AgentID:           arg.AgentID,
		CustomerID:        arg.CustomerID,
		SalePrice:         arg.SalePrice,
		CommissionPercent: arg.CommissionPercent,
		CommissionAmount:  arg.CommissionAmount,
		Note:              arg.Note,
		CreatedAt:         time.Now(),
	}
	tx.sales = append(tx.sales, s)
	return s, nil
}

func (tx *memTx) CreatePayout(ctx context.Context, arg database.CreatePayoutParams) (database.Payout, error) {
	p := database.Payout{
		ID:        uuid.New(),
		AgentID:   arg.AgentID,
		Amount:    arg.Amount,
		Note:      arg.Note,
		CreatedAt: time.Now(),
	}
	tx.payouts = append(tx.payouts, p)
	return p, nil
}

func (tx *memTx) currentBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	a, err := tx.GetAgent(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.NumericToDecimal(a.Balance), nil
}

func (tx *memTx) CreditAgentBalance(ctx context.Context, arg database.CreditAgentBalanceParams) (pgtype.Numeric, error) {
	cur, err := tx.currentBalance(ctx, arg.ID)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	next := cur.Add(ledger.NumericToDecimal(arg.Amount))
	tx.balances[arg.ID] = next
	return ledger.DecimalToNumeric(next), nil
}

func (tx *memTx) DebitAgentBalance(ctx context.Context, arg database.DebitAgentBalanceParams) (pgtype.Numeric, error) {
	cur, err := tx.currentBalance(ctx, arg.ID)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	next := cur.Sub(ledger.NumericToDecimal(arg.Amount))
	if next.IsNegative() {
		return pgtype.Numeric{}, &pgconn.PgError{Code: "23514", ConstraintName: "agents_balance_check"}
	}
	tx.balances[arg.ID] = next
	return ledger.DecimalToNumeric(next), nil
}

func (tx *memTx) GetAgentLedgerTotals(ctx context.Context, agentID uuid.UUID) (database.GetAgentLedgerTotalsRow, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	earned, paid := decimal.Zero, decimal.Zero
	var row database.GetAgentLedgerTotalsRow
	for _, s := range tx.db.sales {
		if s.AgentID == agentID {
			earned = earned.Add(ledger.NumericToDecimal(s.CommissionAmount))
			row.SaleCount++
		}
	}
	for _, p := range tx.db.payouts {
		if p.AgentID == agentID {
			paid = paid.Add(ledger.NumericToDecimal(p.Amount))
			row.PayoutCount++
		}
	}
	row.TotalEarned = ledger.DecimalToNumeric(earned)
	row.TotalPaid = ledger.DecimalToNumeric(paid)
	return row, nil
}

func (tx *memTx) ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.Sale, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	var out []database.Sale
	skipped := int32(0)
	for i := len(tx.db.sales) - 1; i >= 0 && int32(len(out)) < arg.Limit; i-- {
		s := tx.db.sales[i]
		if arg.AgentID.Valid && s.AgentID != uuid.UUID(arg.AgentID.Bytes) {
			continue
		}
		if skipped < arg.Offset {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (tx *memTx) ListPayouts(ctx context.Context, arg database.ListPayoutsParams) ([]database.Payout, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	var out []database.Payout
	skipped := int32(0)
	for i := len(tx.db.payouts) - 1; i >= 0 && int32(len(out)) < arg.Limit; i-- {
		p := tx.db.payouts[i]
		if arg.AgentID.Valid && p.AgentID != uuid.UUID(arg.AgentID.Bytes) {
			continue
		}
		if skipped < arg.Offset {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (tx *memTx) ListBalanceDrift(ctx context.Context) ([]database.ListBalanceDriftRow, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	var out []database.ListBalanceDriftRow
	for id, a := range tx.db.agents {
		sum := tx.db.ledgerSum(id, nil, nil)
		if !ledger.NumericToDecimal(a.Balance).Equal(sum) {
			out = append(out, database.ListBalanceDriftRow{
				ID:            id,
				Name:          a.Name,
				Balance:       a.Balance,
				LedgerBalance: ledger.DecimalToNumeric(sum),
			})
		}
	}
	return out, nil
}

// --- Publisher / Recorder spies ---

type spyPublisher struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (p *spyPublisher) PublishLedgerEvent(evt ledger.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

type spyRecorder struct {
	mu         sync.Mutex
	sales      int
	payouts    int
	rejections []string
}

func (r *spyRecorder) RecordSale(decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales++
}

func (r *spyRecorder) RecordPayout(decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts++
}

func (r *spyRecorder) RecordRejection(op, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections = append(r.rejections, op+":"+reason)
}
