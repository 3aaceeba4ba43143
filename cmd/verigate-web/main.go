package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"verigate/internal/config"
	"verigate/internal/netinfo"
	"verigate/internal/server"
	"verigate/internal/token"
	"verigate/internal/webflow"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadWeb()
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

	lookup, err := netinfo.New(netinfo.Options{
		Token:     cfg.Web.IPInfoToken,
		GeoIPPath: cfg.Web.GeoIPPath,
	}, logger)
	if err != nil {
		logger.Fatal("netinfo init failed", zap.Error(err))
	}
	defer func() {
		_ = lookup.Close()
	}()

	var apiTokens *token.Provider
	if cfg.API.SharedSecret != "" {
		apiTokens = token.NewProvider(cfg.API.SharedSecret, time.Minute)
	}

	flow := webflow.New(webflow.Options{
		OAuth:      webflow.OAuthConfig(cfg.Web),
		Sessions:   token.NewProvider(cfg.Web.CookieSecret, webflow.SessionTTL),
		Lookup:     lookup,
		Submitter:  webflow.NewAPIClient(cfg.Web.BotAPIURL, apiTokens),
		TrustProxy: cfg.Web.TrustProxy,
	}, logger)

	handler, limiter := flow.Routes()
	defer limiter.Stop()

	logger.Info("verigate web started", zap.String("addr", cfg.Web.Addr), zap.String("bot_api", cfg.Web.BotAPIURL))
	if err := server.Serve(ctx, server.NewHTTPServer(cfg.Web.Addr, handler), logger); err != nil {
		logger.Error("web server stopped with error", zap.Error(err))
	}
}
