// Package ledger implements the commission ledger: recording sales and
// payouts against an agent's balance, and reading that balance back.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Store defines the DB methods the ledger needs.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	SetLockTimeout(ctx context.Context, timeout string) error
	GetAgent(ctx context.Context, id uuid.UUID) (database.Agent, error)
	GetAgentForUpdate(ctx context.Context, id uuid.UUID) (database.Agent, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error)
	CreatePayout(ctx context.Context, arg database.CreatePayoutParams) (database.Payout, error)
	CreditAgentBalance(ctx context.Context, arg database.CreditAgentBalanceParams) (pgtype.Numeric, error)
	DebitAgentBalance(ctx context.Context, arg database.DebitAgentBalanceParams) (pgtype.Numeric, error)
	GetAgentLedgerTotals(ctx context.Context, agentID uuid.UUID) (database.GetAgentLedgerTotalsRow, error)
	ListSales(ctx context.Context, arg database.ListSalesParams) ([]database.Sale, error)
	ListPayouts(ctx context.Context, arg database.ListPayoutsParams) ([]database.Payout, error)
	ListBalanceDrift(ctx context.Context) ([]database.ListBalanceDriftRow, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
type NewStore func(db database.DBTX) Store

// Event describes a committed ledger entry. Type is one of the enum.Event*
// constants.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload is the body of an Event. Amounts are fixed two-place strings.
type EventPayload struct {
	ID               uuid.UUID `json:"id"`
	AgentID          uuid.UUID `json:"agentId"`
	Amount           string    `json:"amount"`
	CommissionAmount string    `json:"commissionAmount,omitempty"`
	Balance          string    `json:"balance"`
}

// Publisher receives events after commit. Implementations must not block.
type Publisher interface {
	PublishLedgerEvent(evt Event)
}

// Recorder observes ledger outcomes, typically for metrics.
type Recorder interface {
	RecordSale(commission decimal.Decimal)
	RecordPayout(amount decimal.Decimal)
	RecordRejection(op, reason string)
}

// Service runs ledger operations. It holds no balance state between calls;
// every mutation re-reads the agent row under lock.
type Service struct {
	pool        TxBeginner
	newStore    NewStore
	lockTimeout time.Duration
	publisher   Publisher
	recorder    Recorder
	log         *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLockTimeout bounds how long a transaction waits for an agent row lock.
// Zero leaves the server default in place.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) { s.lockTimeout = d }
}

// WithPublisher sets where committed events are sent.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a new Service.
func NewService(pool TxBeginner, newStore NewStore, opts ...Option) *Service {
	s := &Service{
		pool:     pool,
		newStore: newStore,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// applyLockTimeout scopes lock_timeout to the current transaction.
func (s *Service) applyLockTimeout(ctx context.Context, store Store) error {
	if s.lockTimeout <= 0 {
		return nil
	}
	ms := s.lockTimeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := store.SetLockTimeout(ctx, fmt.Sprintf("%dms", ms)); err != nil {
		return classify("set lock timeout", err)
	}
	return nil
}

func (s *Service) publish(evt Event) {
	if s.publisher != nil {
		s.publisher.PublishLedgerEvent(evt)
	}
}

func (s *Service) rejected(op string, err error) {
	if s.recorder != nil {
		s.recorder.RecordRejection(op, Reason(err))
	}
}
