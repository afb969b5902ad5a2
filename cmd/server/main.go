// Command atom-server runs the session and metadata synchronization service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sibulut/simple-atom/internal/config"
	"github.com/sibulut/simple-atom/internal/identity"
	"github.com/sibulut/simple-atom/internal/migrate"
	pg "github.com/sibulut/simple-atom/internal/postgres"
	"github.com/sibulut/simple-atom/internal/provider/userpool"
	httpserver "github.com/sibulut/simple-atom/internal/server/http"
	"github.com/sibulut/simple-atom/internal/service"
	"github.com/sibulut/simple-atom/internal/store"
	boltstore "github.com/sibulut/simple-atom/internal/store/bolt"
	pgstore "github.com/sibulut/simple-atom/internal/store/postgres"
	"github.com/sibulut/simple-atom/internal/telemetry"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, wires the identity pool and the
// metadata store, and serves the HTTP API until SIGINT/SIGTERM.
func main() {
	// Local dev convenience only; production relies on real env.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration", zap.Error(err))
	}

	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DBDsn); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := pg.New(ctx, cfg.DBDsn)
	if err != nil {
		logger.Fatal("postgres pool", zap.Error(err))
	}
	defer db.Close()

	var metaStore store.MetadataStore
	switch cfg.StoreBackend {
	case config.BackendBolt:
		bs, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			logger.Fatal("bolt store", zap.Error(err))
		}
		defer func() { _ = bs.Close() }()
		metaStore = bs
	default:
		metaStore = pgstore.New(db, cfg.MetadataTable)
	}
	metaStore = store.Instrument(metaStore)

	pool := userpool.New(db, cfg.SigningKey, cfg.AccessTTL, cfg.AutoConfirmSignUp)
	ident := identity.NewClient(pool)
	sync := service.NewSynchronizer(metaStore)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.New(ident, sync, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreBackend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
