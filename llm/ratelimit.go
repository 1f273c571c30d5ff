package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a provider with a token-bucket limiter so parallel
// workers cannot exceed the upstream request budget. Waiting respects the
// caller's context.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing rps requests per
// second with the given burst. rps <= 0 means no limit.
func NewRateLimited(inner Provider, rps float64, burst int) *RateLimited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

// Model returns the wrapped provider's model name.
func (r *RateLimited) Model() string { return r.inner.Model() }

// Generate waits for a limiter token, then delegates.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Generate(ctx, prompt)
}
