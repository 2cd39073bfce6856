package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/account"
	"github.com/lowkeylabs/authgate/internal/admission"
	"github.com/lowkeylabs/authgate/internal/auth"
	"github.com/lowkeylabs/authgate/internal/config"
	"github.com/lowkeylabs/authgate/internal/http/handlers"
	"github.com/lowkeylabs/authgate/internal/middleware"
	"github.com/lowkeylabs/authgate/internal/models"
	limitstore "github.com/lowkeylabs/authgate/internal/ratelimit/store"
	"github.com/lowkeylabs/authgate/internal/storage"
)

// Server wraps an http.Server with configured routes and middleware.
type Server struct {
	inner *http.Server
}

// New wires middleware and routes and returns a ready server. The
// admission gateway runs ahead of every route; the auth-context
// middleware runs before it so role quotas see authenticated callers.
func New(cfg config.Config, store storage.UserStore, counters limitstore.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	accounts := account.NewService(store, tokens, logger)

	gateway := admission.NewGateway(admission.Config{
		Disabled:        cfg.IsTestEnv(),
		BypassUserAgent: cfg.AdmissionBypassUA,
		Window:          cfg.AdmissionWindow,
		RoleLimits: map[string]int{
			models.RoleAdmin: cfg.AdmissionAdminLimit,
			models.RoleUser:  cfg.AdmissionUserLimit,
		},
		DefaultLimit: cfg.AdmissionDefault,
		EvalTimeout:  cfg.AdmissionEvalTimeout,
	}, counters, admission.NewHeuristicEvaluator(), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(accounts, tokens, logger).Register(mux)
	handlers.NewMeHandler(store, logger).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.Admission(gateway, logger, handler)
	handler = middleware.AuthContext(tokens, handler)
	handler = middleware.Logging(logger, handler)
	handler = middleware.CORS(cfg.CORSOrigins, handler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
