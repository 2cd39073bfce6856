// Package admission decides, before any business logic runs, whether an
// inbound request is admitted: trusted-tooling bypass, per-role sliding
// window quotas, and bot/shield classification by a decision provider.
package admission

import (
	"context"
	"time"
)

// Reason classifies why a request was denied.
type Reason string

const (
	ReasonNone      Reason = "none"
	ReasonBot       Reason = "bot"
	ReasonShield    Reason = "shield"
	ReasonRateLimit Reason = "rate_limit"
)

// Decision is the ephemeral, per-request admission outcome.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// RequestContext is the fingerprint of one inbound request as the gateway
// sees it.
type RequestContext struct {
	IP        string
	UserAgent string
	Path      string
	Method    string
	Role      string
}

// QuotaRule is the resolved rate limit for the caller's role.
type QuotaRule struct {
	Limit  int
	Window time.Duration
}

// Evaluator is the external decision provider consulted for automated
// traffic and policy-shield classification.
type Evaluator interface {
	Evaluate(ctx context.Context, req RequestContext, rule QuotaRule) (Decision, error)
}
