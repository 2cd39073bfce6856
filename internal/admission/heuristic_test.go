package admission

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicEvaluator_Classification(t *testing.T) {
	tests := []struct {
		name    string
		req     RequestContext
		allowed bool
		reason  Reason
	}{
		{
			name:    "browser traffic",
			req:     RequestContext{UserAgent: "Mozilla/5.0 (X11; Linux x86_64)", Path: "/sign-in", Method: http.MethodPost},
			allowed: true,
			reason:  ReasonNone,
		},
		{
			name:   "empty user agent",
			req:    RequestContext{UserAgent: "", Path: "/sign-in", Method: http.MethodPost},
			reason: ReasonBot,
		},
		{
			name:   "curl",
			req:    RequestContext{UserAgent: "curl/8.5.0", Path: "/sign-in", Method: http.MethodPost},
			reason: ReasonBot,
		},
		{
			name:   "crawler",
			req:    RequestContext{UserAgent: "Googlebot/2.1", Path: "/", Method: http.MethodGet},
			reason: ReasonBot,
		},
		{
			name:   "path traversal",
			req:    RequestContext{UserAgent: "Mozilla/5.0", Path: "/../etc/passwd", Method: http.MethodGet},
			reason: ReasonShield,
		},
		{
			name:   "script injection probe",
			req:    RequestContext{UserAgent: "Mozilla/5.0", Path: "/search/<script>alert(1)</script>", Method: http.MethodGet},
			reason: ReasonShield,
		},
		{
			name:   "trace method",
			req:    RequestContext{UserAgent: "Mozilla/5.0", Path: "/", Method: http.MethodTrace},
			reason: ReasonShield,
		},
	}

	evaluator := NewHeuristicEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := evaluator.Evaluate(context.Background(), tt.req, QuotaRule{})
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestHeuristicEvaluator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHeuristicEvaluator().Evaluate(ctx, RequestContext{UserAgent: "Mozilla/5.0"}, QuotaRule{})
	assert.ErrorIs(t, err, context.Canceled)
}
