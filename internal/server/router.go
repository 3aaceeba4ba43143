package server

import (
	"net/http"

	"verigate/internal/config"
	"verigate/internal/metrics"
	"verigate/internal/server/handler"
	appmiddleware "verigate/internal/server/middleware"
	"verigate/internal/token"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps holds what the API router needs from the rest of the process.
type Deps struct {
	Service  handler.Submitter
	DB       handler.Pinger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	Tokens   *token.Provider
	Logger   *zap.Logger
}

// NewRouter builds the bot-side API. It returns the limiter so the caller
// can stop its sweeper on shutdown.
func NewRouter(cfg config.APIConfig, deps Deps) (http.Handler, *appmiddleware.RateLimiter) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var recorder appmiddleware.StatusRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Logger(logger, recorder))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limiter := appmiddleware.NewRateLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst, false)

	healthH := handler.NewHealthHandler(deps.DB)
	verifyH := handler.NewVerifyHandler(deps.Service, logger)

	r.Get("/healthz", healthH.Live)
	r.Get("/readyz", healthH.Ready)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Limit)
		r.Use(appmiddleware.Auth(deps.Tokens))
		r.Post("/verify", verifyH.Verify)
	})

	return r, limiter
}
