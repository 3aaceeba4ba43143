package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"verigate/internal/analytics"
	"verigate/internal/bot"
	"verigate/internal/config"
	"verigate/internal/ledger"
	"verigate/internal/metrics"
	"verigate/internal/modules/audit"
	"verigate/internal/notifier"
	"verigate/internal/server"
	"verigate/internal/storage"
	"verigate/internal/token"
	"verigate/internal/verification"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const apiTokenExpiry = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	window := time.Duration(cfg.Ledger.WindowDays) * 24 * time.Hour
	journal, closeJournal, err := openJournal(ctx, cfg.Ledger, store, window)
	if err != nil {
		logger.Fatal("ledger journal init failed", zap.String("backend", cfg.Ledger.Backend), zap.Error(err))
	}
	defer closeJournal()

	usage := ledger.New(window, journal, logger)
	restored, err := usage.Restore(ctx, time.Now())
	if err != nil {
		logger.Warn("ledger restore failed, starting empty", zap.Error(err))
	}
	collector.SetLedgerRestored(restored)
	logger.Info("ledger ready", zap.String("backend", cfg.Ledger.Backend), zap.Int("restored", restored))

	auditLogger := audit.NewLogger(store, logger)
	analyticsEngine := analytics.New(store)

	botSvc, err := bot.New(cfg, logger, store, auditLogger, analyticsEngine)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	notify := notifier.New(botSvc, store, auditLogger, collector, notifier.OptionsFromConfig(cfg), logger)
	evaluator := verification.NewEvaluator(usage, verification.PolicyFromConfig(cfg.Policy), logger)
	service := verification.NewService(cfg.Discord.TargetGuildID, botSvc, evaluator, notify, collector, logger)

	var tokens *token.Provider
	if cfg.API.SharedSecret != "" {
		tokens = token.NewProvider(cfg.API.SharedSecret, apiTokenExpiry)
	} else {
		logger.Warn("API_SHARED_SECRET is empty, /api/verify is unauthenticated")
	}

	handler, limiter := server.NewRouter(cfg.API, server.Deps{
		Service:  service,
		DB:       store,
		Metrics:  collector,
		Gatherer: registry,
		Tokens:   tokens,
		Logger:   logger,
	})
	defer limiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return notify.Run(gctx)
	})
	g.Go(func() error {
		return server.Serve(gctx, server.NewHTTPServer(cfg.API.Addr, handler), logger)
	})
	g.Go(func() error {
		return botSvc.Run(gctx)
	})

	logger.Info("verigate started", zap.String("api_addr", cfg.API.Addr), zap.String("guild_id", cfg.Discord.TargetGuildID))
	if err := g.Wait(); err != nil {
		logger.Error("verigate stopped with error", zap.Error(err))
		return
	}
	logger.Info("verigate stopped")
}

// openJournal picks the durable backing for the ip usage ledger. The memory
// backend keeps no journal and starts empty on every boot.
func openJournal(ctx context.Context, cfg config.LedgerConfig, store *storage.Store, window time.Duration) (ledger.Journal, func(), error) {
	switch cfg.Backend {
	case "sql":
		return store, func() {}, nil
	case "redis":
		journal, err := ledger.NewRedisJournal(ctx, cfg.RedisURL, window)
		if err != nil {
			return nil, nil, err
		}
		return journal, func() { _ = journal.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
