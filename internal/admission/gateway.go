package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/models"
	"github.com/lowkeylabs/authgate/internal/ratelimit"
	"github.com/lowkeylabs/authgate/internal/ratelimit/store"
)

// Config holds the gateway policy knobs.
type Config struct {
	// Disabled turns the gateway off entirely. Reserved for test
	// environments; the bypass is logged once at startup.
	Disabled bool

	// BypassUserAgent admits requests whose User-Agent contains this
	// trusted-tooling signature without further checks.
	BypassUserAgent string

	// Window is the sliding interval shared by every role quota.
	Window time.Duration

	// RoleLimits maps a role to its per-window maximum. Roles absent
	// from the map fall back to DefaultLimit.
	RoleLimits map[string]int

	// DefaultLimit applies to guest and any unconfigured role. The
	// quota table must never resolve to "no limit".
	DefaultLimit int

	// EvalTimeout bounds the decision-provider and counter-store calls.
	// A timeout is an evaluation failure, not a denial.
	EvalTimeout time.Duration
}

// Gateway runs the admission pipeline for every inbound request.
type Gateway struct {
	cfg       Config
	evaluator Evaluator
	limiters  map[string]ratelimit.Limiter
	fallback  ratelimit.Limiter
	logger    *zap.Logger
}

// NewGateway builds a gateway over the given counter store and decision
// provider. One limiter is prepared per configured role plus one shared
// fallback at the default limit.
func NewGateway(cfg Config, counters store.Store, evaluator Evaluator, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = 2 * time.Second
	}

	limiters := make(map[string]ratelimit.Limiter, len(cfg.RoleLimits))
	for role, limit := range cfg.RoleLimits {
		limiters[role] = ratelimit.NewSlidingWindowLimiter(counters, limit, cfg.Window, logger)
	}

	if cfg.Disabled {
		logger.Warn("admission gateway disabled", zap.String("mode", "test bypass"))
	}

	return &Gateway{
		cfg:       cfg,
		evaluator: evaluator,
		limiters:  limiters,
		fallback:  ratelimit.NewSlidingWindowLimiter(counters, cfg.DefaultLimit, cfg.Window, logger),
		logger:    logger,
	}
}

// Check runs the pipeline and returns the admission decision. A non-nil
// error means the evaluation itself failed and the caller must fail
// closed.
func (g *Gateway) Check(ctx context.Context, req RequestContext) (Decision, error) {
	if g.cfg.Disabled {
		recordDecision("bypass")
		return Decision{Allowed: true, Reason: ReasonNone}, nil
	}
	if g.cfg.BypassUserAgent != "" && strings.Contains(req.UserAgent, g.cfg.BypassUserAgent) {
		g.logger.Debug("trusted tooling bypass",
			zap.String("ip", req.IP),
			zap.String("user_agent", req.UserAgent),
			zap.String("path", req.Path),
		)
		recordDecision("bypass")
		return Decision{Allowed: true, Reason: ReasonNone}, nil
	}

	role := req.Role
	if role == "" {
		role = models.RoleGuest
	}
	rule := g.quotaFor(role)

	evalCtx, cancel := context.WithTimeout(ctx, g.cfg.EvalTimeout)
	defer cancel()

	decision, err := g.evaluator.Evaluate(evalCtx, req, rule)
	if err != nil {
		recordDecision("error")
		return Decision{}, fmt.Errorf("decision provider: %w", err)
	}
	if !decision.Allowed {
		g.logDenial(decision.Reason, req)
		recordDecision(string(decision.Reason))
		return decision, nil
	}

	result, err := g.limiterFor(role).Allow(evalCtx, "role:"+role)
	if err != nil {
		recordDecision("error")
		return Decision{}, fmt.Errorf("rate window: %w", err)
	}
	if !result.Allowed {
		g.logDenial(ReasonRateLimit, req)
		recordDecision(string(ReasonRateLimit))
		return Decision{Allowed: false, Reason: ReasonRateLimit}, nil
	}

	recordDecision("allowed")
	return Decision{Allowed: true, Reason: ReasonNone}, nil
}

func (g *Gateway) quotaFor(role string) QuotaRule {
	if limit, ok := g.cfg.RoleLimits[role]; ok {
		return QuotaRule{Limit: limit, Window: g.cfg.Window}
	}
	return QuotaRule{Limit: g.cfg.DefaultLimit, Window: g.cfg.Window}
}

func (g *Gateway) limiterFor(role string) ratelimit.Limiter {
	if limiter, ok := g.limiters[role]; ok {
		return limiter
	}
	return g.fallback
}

func (g *Gateway) logDenial(reason Reason, req RequestContext) {
	g.logger.Warn("request denied",
		zap.String("reason", string(reason)),
		zap.String("ip", req.IP),
		zap.String("user_agent", req.UserAgent),
		zap.String("path", req.Path),
		zap.String("method", req.Method),
	)
}
