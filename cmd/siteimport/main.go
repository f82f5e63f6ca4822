package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/contentforge/siteimport/internal/api"
	"github.com/contentforge/siteimport/internal/clock/system"
	"github.com/contentforge/siteimport/internal/config"
	"github.com/contentforge/siteimport/internal/content"
	"github.com/contentforge/siteimport/internal/extract"
	collyfetch "github.com/contentforge/siteimport/internal/fetch/colly"
	"github.com/contentforge/siteimport/internal/hash/sha256"
	"github.com/contentforge/siteimport/internal/id/uuid"
	"github.com/contentforge/siteimport/internal/importer"
	"github.com/contentforge/siteimport/internal/logging"
	"github.com/contentforge/siteimport/internal/metrics"
	"github.com/contentforge/siteimport/internal/store/memory"
	mongostore "github.com/contentforge/siteimport/internal/store/mongo"
	"github.com/contentforge/siteimport/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store init failed", zap.String("provider", cfg.Store.Provider), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := store.Close(closeCtx); closeErr != nil {
			logger.Error("store close failed", zap.Error(closeErr))
		}
	}()

	fetcher := collyfetch.New(collyfetch.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	})
	extractor := extract.New(extract.Config{
		ServiceKeywords:     cfg.Extract.ServiceKeywords,
		TestimonialKeywords: cfg.Extract.TestimonialKeywords,
		ContactKeywords:     cfg.Extract.ContactKeywords,
	})
	imp := importer.New(fetcher, extractor, store, uuid.New(), system.New(), sha256.New(), logger)

	apiServer := api.NewServer(imp, store, cfg, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started",
			zap.Int("port", cfg.Server.Port),
			zap.String("store", store.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// newStore builds the configured persistence provider. Postgres gets its
// schema provisioned here so the handlers never race table creation.
func newStore(ctx context.Context, cfg config.Config) (content.Store, error) {
	switch cfg.Store.Provider {
	case "mongo":
		return mongostore.New(ctx, mongostore.Config{
			URI:        cfg.Store.Mongo.URI,
			Database:   cfg.Store.Mongo.Database,
			Collection: cfg.Store.Mongo.Collection,
		})
	case "postgres":
		st, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.Store.Postgres.DSN,
			Table:    cfg.Store.Postgres.Table,
			MaxConns: cfg.Store.Postgres.MaxConns,
			MinConns: cfg.Store.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
		return st, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Store.Provider)
	}
}
