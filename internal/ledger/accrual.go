package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const salesCustomerFK = "sales_customer_id_fkey"

// RecordSaleRequest is the validated input for recording a sale.
type RecordSaleRequest struct {
	AgentID    uuid.UUID
	CustomerID *uuid.UUID
	SalePrice  decimal.Decimal
	Note       string
}

// SaleResult is the committed sale and the agent balance after it.
type SaleResult struct {
	Sale    database.Sale
	Balance decimal.Decimal
}

// RecordPayoutRequest is the validated input for recording a payout.
type RecordPayoutRequest struct {
	AgentID uuid.UUID
	Amount  decimal.Decimal
	Note    string
}

// PayoutResult is the committed payout and the agent balance after it.
type PayoutResult struct {
	Payout  database.Payout
	Balance decimal.Decimal
}

// RecordSale credits the agent with commission on salePrice at the agent's
// current rate. The rate is copied onto the sale row and never recomputed.
func (s *Service) RecordSale(ctx context.Context, req RecordSaleRequest) (*SaleResult, error) {
	if err := CheckMoney(req.SalePrice); err != nil {
		err = fmt.Errorf("%w: sale price %w", ErrInvalidSalePrice, err)
		s.rejected(enum.OpSale, err)
		return nil, err
	}

	result, err := s.recordSaleTx(ctx, req)
	if err != nil {
		s.rejected(enum.OpSale, err)
		return nil, err
	}

	commission := NumericToDecimal(result.Sale.CommissionAmount)
	if s.recorder != nil {
		s.recorder.RecordSale(commission)
	}
	s.publish(Event{
		Type: enum.EventSaleRecorded,
		Payload: EventPayload{
			ID:               result.Sale.ID,
			AgentID:          result.Sale.AgentID,
			Amount:           NumericToDecimal(result.Sale.SalePrice).StringFixed(MoneyPlaces),
			CommissionAmount: commission.StringFixed(MoneyPlaces),
			Balance:          result.Balance.StringFixed(MoneyPlaces),
		},
	})
	return result, nil
}

func (s *Service) recordSaleTx(ctx context.Context, req RecordSaleRequest) (*SaleResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := s.applyLockTimeout(ctx, store); err != nil {
		return nil, err
	}

	// --- Lock agent row ---
	agent, err := store.GetAgentForUpdate(ctx, req.AgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("agent %s: %w", req.AgentID, ErrAgentNotFound)
		}
		return nil, classify("lock agent", err)
	}

	// --- Resolve optional customer ---
	customerID := pgtype.UUID{}
	if req.CustomerID != nil {
		if _, err := store.GetCustomer(ctx, *req.CustomerID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("customer %s: %w", *req.CustomerID, ErrCustomerNotFound)
			}
			return nil, classify("get customer", err)
		}
		customerID = pgtype.UUID{Bytes: *req.CustomerID, Valid: true}
	}

	// --- Compute commission from the rate held under lock ---
	percent := NumericToDecimal(agent.CommissionPercent)
	commission := CommissionFor(req.SalePrice, percent)

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	sale, err := store.CreateSale(ctx, database.CreateSaleParams{
		AgentID:           agent.ID,
		CustomerID:        customerID,
		SalePrice:         DecimalToNumeric(req.SalePrice),
		CommissionPercent: DecimalToNumeric(percent),
		CommissionAmount:  DecimalToNumeric(commission),
		Note:              note,
	})
	if err != nil {
		// Customer deleted between lookup and insert.
		if req.CustomerID != nil && isForeignKeyViolation(err, salesCustomerFK) {
			return nil, fmt.Errorf("customer %s: %w", *req.CustomerID, ErrCustomerNotFound)
		}
		return nil, classify("create sale", err)
	}

	balance, err := store.CreditAgentBalance(ctx, database.CreditAgentBalanceParams{
		Amount: DecimalToNumeric(commission),
		ID:     agent.ID,
	})
	if err != nil {
		return nil, classify("credit balance", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit sale", err)
	}

	s.log.Debug("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("agent_id", agent.ID.String()),
		zap.String("commission", commission.StringFixed(MoneyPlaces)),
	)
	return &SaleResult{Sale: sale, Balance: NumericToDecimal(balance)}, nil
}

// RecordPayout debits amount from the agent's balance. The balance check runs
// against the row read under lock, so two payouts can never both spend the
// same funds.
func (s *Service) RecordPayout(ctx context.Context, req RecordPayoutRequest) (*PayoutResult, error) {
	if err := CheckMoney(req.Amount); err != nil {
		err = fmt.Errorf("%w: amount %w", ErrInvalidAmount, err)
		s.rejected(enum.OpPayout, err)
		return nil, err
	}

	result, err := s.recordPayoutTx(ctx, req)
	if err != nil {
		s.rejected(enum.OpPayout, err)
		return nil, err
	}

	amount := NumericToDecimal(result.Payout.Amount)
	if s.recorder != nil {
		s.recorder.RecordPayout(amount)
	}
	s.publish(Event{
		Type: enum.EventPayoutRecorded,
		Payload: EventPayload{
			ID:      result.Payout.ID,
			AgentID: result.Payout.AgentID,
			Amount:  amount.StringFixed(MoneyPlaces),
			Balance: result.Balance.StringFixed(MoneyPlaces),
		},
	})
	return result, nil
}

func (s *Service) recordPayoutTx(ctx context.Context, req RecordPayoutRequest) (*PayoutResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := s.applyLockTimeout(ctx, store); err != nil {
		return nil, err
	}

	// --- Lock agent row ---
	agent, err := store.GetAgentForUpdate(ctx, req.AgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("agent %s: %w", req.AgentID, ErrAgentNotFound)
		}
		return nil, classify("lock agent", err)
	}

	// --- Check funds ---
	current := NumericToDecimal(agent.Balance)
	if req.Amount.GreaterThan(current) {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientBalance, current.StringFixed(MoneyPlaces), req.Amount.StringFixed(MoneyPlaces))
	}

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	payout, err := store.CreatePayout(ctx, database.CreatePayoutParams{
		AgentID: agent.ID,
		Amount:  DecimalToNumeric(req.Amount),
		Note:    note,
	})
	if err != nil {
		return nil, classify("create payout", err)
	}

	balance, err := store.DebitAgentBalance(ctx, database.DebitAgentBalanceParams{
		Amount: DecimalToNumeric(req.Amount),
		ID:     agent.ID,
	})
	if err != nil {
		return nil, classify("debit balance", err)
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, classify("commit payout", err)
	}

	s.log.Debug("payout recorded",
		zap.String("payout_id", payout.ID.String()),
		zap.String("agent_id", agent.ID.String()),
		zap.String("amount", req.Amount.StringFixed(MoneyPlaces)),
	)
	return &PayoutResult{Payout: payout, Balance: NumericToDecimal(balance)}, nil
}
