// Command api runs the analysis configuration engine HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	analyticsadapter "semflow/adapters/analytics"
	"semflow/adapters/memory"
	"semflow/adapters/postgres"
	"semflow/api"
	"semflow/internal"
	"semflow/internal/config"
	"semflow/internal/workflow"
	"semflow/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	logger := internal.NewDefaultLogger("api")
	gin.SetMode(cfg.Server.GinMode)

	backend, err := analyticsadapter.NewClient(analyticsadapter.Config{
		BaseURL:       cfg.Analytics.URL,
		HealthTimeout: cfg.Analytics.HealthTimeout,
		RunTimeout:    cfg.Analytics.RunTimeout,
	})
	if err != nil {
		log.Fatalf("analytics backend: %v", err)
	}

	repo, cleanup, err := newSelectionRepository(cfg, logger)
	if err != nil {
		log.Fatalf("selection store: %v", err)
	}
	defer cleanup()

	coordinator := workflow.NewCoordinator(backend, repo, logger.With("workflow"))
	server := api.NewServer(coordinator, cfg.Upload.MaxBytes, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening on %s (analytics backend %s)", cfg.Server.Addr(), cfg.Analytics.URL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
	logger.Info("shutdown complete")
}

// newSelectionRepository connects to Postgres when DATABASE_URL is set and
// falls back to the in-memory store otherwise.
func newSelectionRepository(cfg *config.Config, logger *internal.Logger) (ports.SelectionRepository, func(), error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set; selections will not survive restarts")
		return memory.NewSelectionRepository(), func() {}, nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.Exec(postgres.Schema); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("selection store: postgres")
	return postgres.NewSelectionRepository(db), func() { db.Close() }, nil
}
