package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/tobenna/bankcore/internal/cache"
	"github.com/tobenna/bankcore/internal/config"
	"github.com/tobenna/bankcore/internal/handler"
	"github.com/tobenna/bankcore/internal/idgen"
	"github.com/tobenna/bankcore/internal/locking"
	"github.com/tobenna/bankcore/internal/logging"
	"github.com/tobenna/bankcore/internal/middleware"
	"github.com/tobenna/bankcore/internal/service"
	"github.com/tobenna/bankcore/internal/service/ledger"
	"github.com/tobenna/bankcore/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("bankcore-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := postgres.NewStore(db)

	var balances *cache.BalanceCache
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		balances = cache.NewBalanceCache(client, time.Duration(cfg.BalanceCacheTTLS)*time.Second)
	}

	ids := idgen.New(cfg.IDMaxAttempts)
	locks := locking.NewCoordinator(cfg.LockStripes)
	engine := ledger.NewService(st, locks, ids, time.Duration(cfg.OpTimeoutS)*time.Second)

	var accounts *service.AccountService
	if balances != nil {
		accounts = service.NewAccountService(st, ids, balances)
	} else {
		accounts = service.NewAccountService(st, ids, nil)
	}
	banking := service.NewBanking(engine, accounts, st)
	history := service.NewHistoryService(st)

	accountHandler := handler.NewAccountHandler(accounts, banking)
	transferHandler := handler.NewTransferHandler(banking)
	transactionHandler := handler.NewTransactionHandler(history)
	healthHandler := handler.NewHealthHandler(func(r *http.Request) error {
		return db.PingContext(r.Context())
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("POST /api/v1/banks", accountHandler.CreateBank)
	mux.HandleFunc("GET /api/v1/banks/{bankCode}/summary", accountHandler.BankSummary)
	mux.HandleFunc("POST /api/v1/customers", accountHandler.OnboardCustomer)
	mux.HandleFunc("POST /api/v1/onboarding", accountHandler.Onboard)
	mux.HandleFunc("GET /api/v1/customers/{holderID}/accounts", accountHandler.ListByHolder)

	mux.HandleFunc("POST /api/v1/accounts", accountHandler.Create)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}", accountHandler.Get)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/balance", accountHandler.GetBalance)
	mux.HandleFunc("PATCH /api/v1/accounts/{accountNumber}/status", accountHandler.SetStatus)
	mux.HandleFunc("POST /api/v1/accounts/{accountNumber}/close", accountHandler.Close)

	mux.HandleFunc("POST /api/v1/accounts/{accountNumber}/deposits", transferHandler.Deposit)
	mux.HandleFunc("POST /api/v1/accounts/{accountNumber}/withdrawals", transferHandler.Withdraw)
	mux.HandleFunc("POST /api/v1/transfers", transferHandler.Transfer)

	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/transactions", transactionHandler.Statement)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/transactions/search", transactionHandler.Search)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/transfers/incoming", transactionHandler.Incoming)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/transfers/outgoing", transactionHandler.Outgoing)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/totals", transactionHandler.TotalByType)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/summary/daily", transactionHandler.DailySummary)
	mux.HandleFunc("GET /api/v1/accounts/{accountNumber}/statement", transactionHandler.StatementSummary)
	mux.HandleFunc("GET /api/v1/transactions/{transactionID}", transactionHandler.Get)

	var root http.Handler = mux
	root = middleware.Logging(root)
	root = middleware.Tracing(root)
	root = middleware.Recovery(root)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go engine.RunCleanupLoop(sweepCtx,
		time.Duration(cfg.PendingCleanupIntervalS)*time.Second,
		time.Duration(cfg.PendingCutoffS)*time.Second,
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connectDB: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeS) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second)

	for i := range 30 {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
