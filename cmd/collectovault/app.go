package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marikmarie/collectovault/internal/db"
	"github.com/marikmarie/collectovault/internal/handlers"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/repository/postgres"
	"github.com/marikmarie/collectovault/internal/service/ledger"
	"github.com/marikmarie/collectovault/internal/service/redemption"
	"github.com/marikmarie/collectovault/internal/service/reward"
	"github.com/marikmarie/collectovault/internal/service/rules"
	"github.com/marikmarie/collectovault/internal/service/session"
	"github.com/marikmarie/collectovault/internal/service/tier"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorageLockTimeout(pool, c.LockTimeout)

	// Initialize services
	sessionManager, err := session.New(session.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating session manager. Err: %w", err)
	}
	ledgerService := ledger.NewService(storage)
	tierService := tier.NewService(storage)
	rewardService := reward.NewService(storage)
	ruleService := rules.NewService(storage)
	redemptionService := redemption.NewService(storage, ruleService)

	mux := handlers.NewRouter(
		sessionManager,
		ledgerService,
		tierService,
		rewardService,
		ruleService,
		redemptionService,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
