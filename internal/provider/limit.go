package provider

import (
	"context"

	"golang.org/x/time/rate"

	"creative-automation/internal/variant"
)

type limitedImage struct {
	next    ImageProvider
	limiter *rate.Limiter
}

// RateLimited paces calls to p at rps requests per second with a burst of 2.
// A non-positive rps returns p unchanged.
func RateLimited(p ImageProvider, rps float64) ImageProvider {
	if p == nil || rps <= 0 {
		return p
	}
	return &limitedImage{next: p, limiter: rate.NewLimiter(rate.Limit(rps), 2)}
}

func (l *limitedImage) Name() string { return l.next.Name() }

func (l *limitedImage) GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, Wrap(l.next.Name(), KindTimeout, err)
	}
	return l.next.GenerateImage(ctx, prompt, v)
}
