// Package generate produces the raw image for one (product, variant) pair,
// failing over from the primary provider to the fallback exactly once.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"creative-automation/internal/provider"
	"creative-automation/internal/variant"
)

const defaultTimeout = 60 * time.Second

var ErrAllProvidersFailed = errors.New("all image providers failed")

type Request struct {
	Product  string
	Audience string
	Message  string
	Region   string
	Culture  string
	Variant  variant.Variant
}

// Attempt records one provider call made for an asset.
type Attempt struct {
	Provider string        `json:"provider"`
	OK       bool          `json:"ok"`
	Kind     provider.Kind `json:"kind,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

type Stage struct {
	primary  provider.ImageProvider
	fallback provider.ImageProvider
	timeout  time.Duration
	logger   *slog.Logger
}

// New returns a Stage. fallback may be nil.
func New(primary, fallback provider.ImageProvider, opts Options) (*Stage, error) {
	if primary == nil {
		return nil, errors.New("generate: primary provider is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stage{primary: primary, fallback: fallback, timeout: timeout, logger: logger}, nil
}

func (s *Stage) Providers() []string {
	names := []string{s.primary.Name()}
	if s.fallback != nil {
		names = append(names, s.fallback.Name())
	}
	return names
}

// Generate tries the primary provider, then the fallback once. The returned
// trail always has one entry per call made. When every call fails the error
// wraps ErrAllProvidersFailed and each provider error.
func (s *Stage) Generate(ctx context.Context, req Request) ([]byte, []Attempt, error) {
	prompt := BuildPrompt(req)
	attempts := make([]Attempt, 0, 2)

	raw, a, primaryErr := s.call(ctx, s.primary, prompt, req)
	attempts = append(attempts, a)
	if primaryErr == nil {
		return raw, attempts, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, attempts, err
	}

	if s.fallback == nil {
		return nil, attempts, fmt.Errorf("%w: %w", ErrAllProvidersFailed, primaryErr)
	}

	s.logger.Warn("primary provider failed, trying fallback",
		"product", req.Product,
		"variant", req.Variant.String(),
		"primary", s.primary.Name(),
		"fallback", s.fallback.Name(),
		"err", primaryErr,
	)

	raw, a, fallbackErr := s.call(ctx, s.fallback, prompt, req)
	attempts = append(attempts, a)
	if fallbackErr == nil {
		return raw, attempts, nil
	}
	return nil, attempts, fmt.Errorf("%w: %w; %w", ErrAllProvidersFailed, primaryErr, fallbackErr)
}

func (s *Stage) call(ctx context.Context, p provider.ImageProvider, prompt string, req Request) ([]byte, Attempt, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.GenerateImage(callCtx, prompt, req.Variant)
	a := Attempt{Provider: p.Name(), Duration: time.Since(start)}

	if err == nil && len(raw) == 0 {
		err = provider.Wrap(p.Name(), provider.KindMalformed, errors.New("empty image"))
	}
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = provider.Wrap(p.Name(), provider.KindTimeout, err)
		}
		var pe *provider.Error
		if errors.As(err, &pe) {
			a.Kind = pe.Kind
		}
		a.Err = err.Error()
		return nil, a, err
	}

	a.OK = true
	s.logger.Debug("image generated", "provider", p.Name(), "product", req.Product, "variant", req.Variant.String(), "duration", a.Duration.String())
	return raw, a, nil
}
