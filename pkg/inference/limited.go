package inference

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limited spaces calls to the wrapped Inferencer so that no more than the
// configured number start per minute.
type Limited struct {
	next    Inferencer
	limiter *rate.Limiter
}

// NewLimited wraps next with a per-minute limit. perMinute <= 0 returns next unchanged.
func NewLimited(next Inferencer, perMinute int) Inferencer {
	if perMinute <= 0 {
		return next
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (l *Limited) Infer(ctx context.Context, opts *Options, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return l.next.Infer(ctx, opts, prompt)
}
