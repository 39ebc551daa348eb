package generate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-automation/internal/provider"
	"creative-automation/internal/variant"
)

type fakeProvider struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, prompt string, v variant.Variant) ([]byte, error)
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error) {
	f.calls.Add(1)
	return f.fn(ctx, prompt, v)
}

func ok(b string) func(context.Context, string, variant.Variant) ([]byte, error) {
	return func(context.Context, string, variant.Variant) ([]byte, error) { return []byte(b), nil }
}

func fail(kind provider.Kind) func(context.Context, string, variant.Variant) ([]byte, error) {
	return func(context.Context, string, variant.Variant) ([]byte, error) {
		return nil, provider.Wrap("x", kind, errors.New("upstream said no"))
	}
}

var req = Request{Product: "safety helmet", Audience: "construction workers", Message: "Safety first", Variant: variant.Square}

func TestPrimarySuccessSkipsFallback(t *testing.T) {
	primary := &fakeProvider{name: "hf", fn: ok("img")}
	fallback := &fakeProvider{name: "openai", fn: ok("other")}
	s, err := New(primary, fallback, Options{})
	require.NoError(t, err)

	raw, attempts, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), raw)
	require.Len(t, attempts, 1)
	assert.Equal(t, "hf", attempts[0].Provider)
	assert.True(t, attempts[0].OK)
	assert.Zero(t, fallback.calls.Load())
}

func TestFallbackAfterPrimaryFailure(t *testing.T) {
	for _, kind := range []provider.Kind{provider.KindAuth, provider.KindQuota, provider.KindMalformed, provider.KindUnavailable} {
		t.Run(string(kind), func(t *testing.T) {
			primary := &fakeProvider{name: "hf", fn: fail(kind)}
			fallback := &fakeProvider{name: "openai", fn: ok("img")}
			s, err := New(primary, fallback, Options{})
			require.NoError(t, err)

			raw, attempts, err := s.Generate(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, []byte("img"), raw)
			require.Len(t, attempts, 2)
			assert.False(t, attempts[0].OK)
			assert.Equal(t, kind, attempts[0].Kind)
			assert.NotEmpty(t, attempts[0].Err)
			assert.Equal(t, "openai", attempts[1].Provider)
			assert.True(t, attempts[1].OK)
			assert.Equal(t, int32(1), primary.calls.Load())
			assert.Equal(t, int32(1), fallback.calls.Load())
		})
	}
}

func TestPrimaryTimeoutIsAFailure(t *testing.T) {
	primary := &fakeProvider{name: "hf", fn: func(ctx context.Context, _ string, _ variant.Variant) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	fallback := &fakeProvider{name: "openai", fn: ok("img")}
	s, err := New(primary, fallback, Options{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)

	raw, attempts, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), raw)
	require.Len(t, attempts, 2)
	assert.Equal(t, provider.KindTimeout, attempts[0].Kind)
}

func TestBothProvidersFail(t *testing.T) {
	primary := &fakeProvider{name: "hf", fn: fail(provider.KindQuota)}
	fallback := &fakeProvider{name: "openai", fn: fail(provider.KindAuth)}
	s, err := New(primary, fallback, Options{})
	require.NoError(t, err)

	raw, attempts, err := s.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.True(t, provider.IsKind(err, provider.KindQuota))
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].OK)
	assert.False(t, attempts[1].OK)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), fallback.calls.Load())
}

func TestNoFallbackConfigured(t *testing.T) {
	primary := &fakeProvider{name: "hf", fn: fail(provider.KindUnavailable)}
	s, err := New(primary, nil, Options{})
	require.NoError(t, err)

	_, attempts, err := s.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Len(t, attempts, 1)
	assert.Equal(t, []string{"hf"}, s.Providers())
}

func TestEmptyImageIsMalformed(t *testing.T) {
	primary := &fakeProvider{name: "hf", fn: ok("")}
	fallback := &fakeProvider{name: "openai", fn: ok("img")}
	s, err := New(primary, fallback, Options{})
	require.NoError(t, err)

	_, attempts, err := s.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, provider.KindMalformed, attempts[0].Kind)
}

func TestCallerCancellationSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &fakeProvider{name: "hf", fn: func(ctx context.Context, _ string, _ variant.Variant) ([]byte, error) {
		cancel()
		return nil, ctx.Err()
	}}
	fallback := &fakeProvider{name: "openai", fn: ok("img")}
	s, err := New(primary, fallback, Options{})
	require.NoError(t, err)

	_, _, err = s.Generate(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fallback.calls.Load())
}

func TestNewRequiresPrimary(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{
		Product:  "work boots",
		Audience: "construction workers",
		Message:  "Built for the job",
		Region:   "Germany",
		Culture:  "German precision, engineering excellence",
		Variant:  variant.Portrait,
	})
	assert.Contains(t, p, "Product: work boots")
	assert.Contains(t, p, "Target audience: construction workers")
	assert.Contains(t, p, "German precision")
	assert.Contains(t, p, "9:16 (576x1024)")
	assert.Contains(t, p, "Vertical story framing")

	bare := BuildPrompt(Request{Product: "mug", Variant: variant.Square})
	assert.NotContains(t, bare, "Target audience")
	assert.Contains(t, bare, "1:1 (1024x1024)")
}
