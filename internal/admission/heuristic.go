package admission

import (
	"context"
	"net/http"
	"strings"
)

// Signatures of automated clients. Matched case-insensitively against the
// User-Agent header.
var botSignatures = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"curl/",
	"wget/",
	"python-requests",
	"go-http-client",
}

// Payload fragments that trip the policy shield: traversal and the common
// injection probes.
var shieldPatterns = []string{
	"../",
	"..\\",
	"<script",
	"union select",
	"' or '",
	"etc/passwd",
}

// HeuristicEvaluator is a local stand-in for a hosted decision provider.
// It never returns an error; classification is pure string matching.
type HeuristicEvaluator struct{}

// NewHeuristicEvaluator constructs the local evaluator.
func NewHeuristicEvaluator() *HeuristicEvaluator {
	return &HeuristicEvaluator{}
}

// Evaluate implements Evaluator.
func (e *HeuristicEvaluator) Evaluate(ctx context.Context, req RequestContext, _ QuotaRule) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	if isBot(req.UserAgent) {
		return Decision{Allowed: false, Reason: ReasonBot}, nil
	}
	if trippedShield(req) {
		return Decision{Allowed: false, Reason: ReasonShield}, nil
	}
	return Decision{Allowed: true, Reason: ReasonNone}, nil
}

func isBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	return false
}

func trippedShield(req RequestContext) bool {
	if req.Method == http.MethodTrace {
		return true
	}
	path := strings.ToLower(req.Path)
	for _, pattern := range shieldPatterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
