package browser

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled spaces out renders against the same site.
type Throttled struct {
	next    Renderer
	limiter *rate.Limiter
}

// NewThrottled wraps next with a token bucket of rps requests per second.
func NewThrottled(next Renderer, rps float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Render waits for a token, then renders.
func (t *Throttled) Render(ctx context.Context, pageURL string, opts Options) (*Page, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.next.Render(ctx, pageURL, opts)
}
