package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/licensedesk/api/internal/config"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/licensedesk/api/internal/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// CLI flags
	name := flag.String("name", "", "Agent name")
	phone := flag.String("phone", "", "Agent phone")
	percent := flag.String("percent", "", "Agent commission percent (0-100)")
	licenseKey := flag.String("license-key", "", "Demo license key")
	flag.Parse()

	// Fall back to environment variables, then defaults
	*name = firstNonEmpty(*name, os.Getenv("SEED_AGENT_NAME"), "Demo Agent")
	*phone = firstNonEmpty(*phone, os.Getenv("SEED_AGENT_PHONE"), "081234567890")
	*percent = firstNonEmpty(*percent, os.Getenv("SEED_AGENT_PERCENT"), "10")
	*licenseKey = firstNonEmpty(*licenseKey, os.Getenv("SEED_LICENSE_KEY"), "DEMO-0000-0000-0001")

	cfg := config.Load()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: "console", Service: "licensedesk-seed"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	pct, err := decimal.NewFromString(*percent)
	if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		log.Fatal("percent must be a number between 0 and 100", zap.String("percent", *percent))
	}

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal("unable to ping database", zap.Error(err))
	}

	// Seed in a transaction (atomicity: both agent + license record or neither)
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal("failed to begin transaction", zap.Error(err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	agentID, err := seedAgent(ctx, tx, log, *name, *phone, pct)
	if err != nil {
		log.Fatal("failed to seed agent", zap.Error(err))
	}

	customerID, err := seedLicense(ctx, tx, log, agentID, *licenseKey)
	if err != nil {
		log.Fatal("failed to seed license record", zap.Error(err))
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal("failed to commit", zap.Error(err))
	}

	log.Info("seed completed",
		zap.String("agent_id", agentID.String()),
		zap.String("customer_id", customerID.String()))
}

// seedAgent creates the demo agent if one with the same name doesn't exist.
func seedAgent(ctx context.Context, tx pgx.Tx, log *zap.Logger, name, phone string, percent decimal.Decimal) (uuid.UUID, error) {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM agents WHERE name = $1 LIMIT 1`, name).Scan(&existingID)
	if err == nil {
		log.Info("agent already exists, skipping", zap.String("name", name), zap.String("id", existingID.String()))
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check agent: %w", err)
	}

	agent, err := database.New(tx).CreateAgent(ctx, database.CreateAgentParams{
		Name:              name,
		Phone:             phone,
		CommissionPercent: ledger.DecimalToNumeric(percent),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert agent: %w", err)
	}

	log.Info("created agent", zap.String("name", name), zap.String("id", agent.ID.String()))
	return agent.ID, nil
}

// seedLicense issues a demo license record attributed to the agent.
func seedLicense(ctx context.Context, tx pgx.Tx, log *zap.Logger, agentID uuid.UUID, licenseKey string) (uuid.UUID, error) {
	var existingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM customers WHERE license_key = $1`, licenseKey).Scan(&existingID)
	if err == nil {
		log.Info("license record already exists, skipping", zap.String("license_key", licenseKey))
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check license record: %w", err)
	}

	customer, err := database.New(tx).CreateCustomer(ctx, database.CreateCustomerParams{
		CustomerName: "Demo Customer",
		ProductID:    "demo-product",
		LicenseKey:   licenseKey,
		ExpiryDate:   pgtype.Date{Time: time.Now().AddDate(1, 0, 0).Truncate(24 * time.Hour), Valid: true},
		Message:      pgtype.Text{String: "Welcome aboard", Valid: true},
		AgentID:      pgtype.UUID{Bytes: agentID, Valid: true},
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert license record: %w", err)
	}

	log.Info("created license record", zap.String("license_key", licenseKey), zap.String("id", customer.ID.String()))
	return customer.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
