// Package translate localizes the campaign message once per campaign run.
package translate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/language"

	"creative-automation/internal/provider"
	"creative-automation/internal/region"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultCacheTTL = 6 * time.Hour
)

type Options struct {
	DefaultLanguage language.Tag
	Timeout         time.Duration
	CacheTTL        time.Duration
	Logger          *slog.Logger
}

// Stage is safe for concurrent use; the memo cache is shared across runs.
type Stage struct {
	translator  provider.Translator
	defaultLang language.Tag
	timeout     time.Duration
	cache       *cache.Cache
	logger      *slog.Logger
}

// New returns a Stage. A nil translator is allowed: every non-default
// language then falls back to the original message.
func New(translator provider.Translator, opts Options) *Stage {
	def := opts.DefaultLanguage
	if def == language.Und {
		def = language.English
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Stage{
		translator:  translator,
		defaultLang: def,
		timeout:     timeout,
		cache:       cache.New(ttl, ttl*2),
		logger:      logger,
	}
}

// Localize returns message rendered in lang and whether it had to fall back to
// the original text. It never fails.
func (s *Stage) Localize(ctx context.Context, message string, lang language.Tag, culture string) (string, bool) {
	if strings.TrimSpace(message) == "" || s.isDefault(lang) {
		return message, false
	}

	key := lang.String() + "\x00" + message
	if v, ok := s.cache.Get(key); ok {
		return v.(string), false
	}

	if s.translator == nil {
		s.logger.Warn("translation unavailable, using original message", "language", lang.String(), "reason", "no translator configured")
		return message, true
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.translator.Translate(callCtx, message, region.LanguageName(lang), culture)
	if err == nil {
		out = strings.TrimSpace(out)
	}
	if err != nil || out == "" {
		attrs := []any{
			"language", lang.String(),
			"provider", s.translator.Name(),
			"duration", time.Since(start).String(),
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		} else {
			attrs = append(attrs, "err", "empty translation")
		}
		s.logger.Warn("translation failed, using original message", attrs...)
		return message, true
	}

	s.cache.SetDefault(key, out)
	s.logger.Debug("message translated", "language", lang.String(), "provider", s.translator.Name())
	return out, false
}

func (s *Stage) isDefault(lang language.Tag) bool {
	if lang == language.Und {
		return true
	}
	b1, _ := lang.Base()
	b2, _ := s.defaultLang.Base()
	return b1 == b2
}
