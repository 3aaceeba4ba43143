// Package webflow is the browser-facing half of verification: Discord OAuth,
// network inspection and submission to the bot API.
package webflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"verigate/internal/config"
	"verigate/internal/netinfo"
	appmiddleware "verigate/internal/server/middleware"
	"verigate/internal/token"
	"verigate/internal/verification"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

var ErrUnauthorized = errors.New("unauthorized")

const (
	sessionCookie = "verigate_session"
	stateCookie   = "verigate_state"
	SessionTTL    = 15 * time.Minute
)

var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const DiscordAPIBase = "https://discord.com/api"

type Lookup interface {
	Lookup(ctx context.Context, ip string) netinfo.Info
}

type Submitter interface {
	Submit(ctx context.Context, sub verification.Submission) (Result, error)
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Handler struct {
	oauth      *oauth2.Config
	apiBase    string
	sessions   *token.Provider
	lookup     Lookup
	submitter  Submitter
	trustProxy bool
	secure     bool
	logger     *zap.Logger
}

type Options struct {
	OAuth      *oauth2.Config
	APIBase    string
	Sessions   *token.Provider
	Lookup     Lookup
	Submitter  Submitter
	TrustProxy bool
}

func OAuthConfig(cfg config.WebConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"identify", "email"},
		Endpoint:     DiscordEndpoint,
	}
}

func New(opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.APIBase == "" {
		opts.APIBase = DiscordAPIBase
	}
	return &Handler{
		oauth:      opts.OAuth,
		apiBase:    strings.TrimRight(opts.APIBase, "/"),
		sessions:   opts.Sessions,
		lookup:     opts.Lookup,
		submitter:  opts.Submitter,
		trustProxy: opts.TrustProxy,
		secure:     strings.HasPrefix(opts.OAuth.RedirectURL, "https://"),
		logger:     logger,
	}
}

// Routes mounts the flow on a chi router with the same middleware stack the
// bot API uses.
func (h *Handler) Routes() (http.Handler, *appmiddleware.RateLimiter) {
	limiter := appmiddleware.NewRateLimiter(rate.Limit(2), 5, h.trustProxy)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Logger(h.logger, nil))
	r.Use(chimiddleware.Recoverer)
	r.Use(limiter.Limit)

	r.Get("/", h.Index)
	r.Get("/callback", h.Callback)
	r.Get("/collect", h.Collect)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r, limiter
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "No code provided by Discord.", http.StatusBadRequest)
		return
	}
	stateC, err := r.Cookie(stateCookie)
	if err != nil || stateC.Value == "" || stateC.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state.", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	user, err := h.identify(r.Context(), code)
	if err != nil {
		h.logger.Warn("discord oauth failed", zap.Error(err))
		http.Error(w, "Failed to get token from Discord.", http.StatusBadRequest)
		return
	}

	signed, err := h.sessions.Sign(token.AudienceSession, user.ID, token.Claims{Username: user.Username, Email: user.Email})
	if err != nil {
		h.logger.Error("sign session failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/collect", http.StatusFound)
}

func (h *Handler) identify(ctx context.Context, code string) (discordUser, error) {
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return discordUser{}, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.apiBase+"/users/@me", nil)
	if err != nil {
		return discordUser{}, err
	}
	resp, err := h.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return discordUser{}, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return discordUser{}, fmt.Errorf("fetch user: status %d", resp.StatusCode)
	}

	var user discordUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&user); err != nil {
		return discordUser{}, fmt.Errorf("decode user: %w", err)
	}
	if user.ID == "" {
		return discordUser{}, errors.New("discord returned no user id")
	}
	return user, nil
}

func (h *Handler) session(r *http.Request) (*token.Claims, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, ErrUnauthorized
	}
	claims, err := h.sessions.Verify(token.AudienceSession, c.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	claims, err := h.session(r)
	if err != nil {
		render(w, http.StatusUnauthorized, sessionExpiredPage())
		return
	}

	ip := appmiddleware.ClientIP(r, h.trustProxy)
	info := h.lookup.Lookup(r.Context(), ip)
	sub := verification.Submission{
		UserID:     claims.Subject,
		Email:      claims.Email,
		IP:         ip,
		Country:    info.Country,
		VPNOrProxy: info.Anonymized,
	}

	result, err := h.submitter.Submit(r.Context(), sub)
	if err != nil {
		h.logger.Warn("verify submission failed", zap.String("user_id", sub.UserID), zap.Error(err))
		render(w, http.StatusOK, failurePage(""))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	if result.Success() {
		render(w, http.StatusOK, successPage())
		return
	}
	render(w, http.StatusOK, failurePage(result.Reason))
}
