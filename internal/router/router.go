package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/licensedesk/api/internal/config"
	"github.com/licensedesk/api/internal/database"
	"github.com/licensedesk/api/internal/handler"
	"github.com/licensedesk/api/internal/ledger"
	"github.com/licensedesk/api/internal/metrics"
	mw "github.com/licensedesk/api/internal/middleware"
	"github.com/licensedesk/api/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// /health and /metrics are public; everything under /api requires the API key.
func New(cfg *config.Config, log *zap.Logger, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, m *metrics.Metrics) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.APIKeyHeader},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", handler.Health(pool))
	r.Handle("/metrics", m.Handler())

	limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// WebSocket route (handles auth internally via query param)
	r.With(limiter.Handler).Get("/ws/ledger", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.APIKey, log, w, r)
	})

	newLedgerStore := func(db database.DBTX) ledger.Store {
		return database.New(db)
	}
	ledgerService := ledger.NewService(pool, newLedgerStore,
		ledger.WithLockTimeout(cfg.LedgerLockTimeout),
		ledger.WithPublisher(hub),
		ledger.WithRecorder(m),
		ledger.WithLogger(log.Named("ledger")),
	)

	// Protected routes (require the API key)
	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Use(mw.RequireAPIKey(cfg.APIKey))

		agentHandler := handler.NewAgentHandler(queries, ledgerService)
		r.Route("/agents", agentHandler.RegisterRoutes)

		saleHandler := handler.NewSaleHandler(queries, ledgerService)
		r.Route("/sales", saleHandler.RegisterRoutes)

		payoutHandler := handler.NewPayoutHandler(queries, ledgerService)
		r.Route("/payouts", payoutHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		ledgerHandler := handler.NewLedgerHandler(ledgerService)
		r.Route("/ledger", ledgerHandler.RegisterRoutes)
	})

	log.Debug("router initialized")
	return r
}
