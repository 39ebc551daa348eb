// Package provider defines the interchangeable backends the pipeline calls out
// to: image generators and translators. Concrete clients live in their own
// packages (huggingface, openai, gemini) and are selected by configuration.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"creative-automation/internal/variant"
)

type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string, v variant.Variant) ([]byte, error)
}

type Translator interface {
	Name() string
	Translate(ctx context.Context, text, targetLanguage, culturalContext string) (string, error)
}

type Kind string

const (
	KindAuth        Kind = "auth"
	KindQuota       Kind = "quota"
	KindTimeout     Kind = "timeout"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
)

// Error is returned by every provider client so callers can tell failure
// classes apart without knowing the backend.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err for the named provider. Context deadline errors become
// timeouts; an existing *Error is returned as is.
func Wrap(name string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &Error{Provider: name, Kind: kind, Err: err}
}

// KindFromStatus maps an upstream HTTP status to a failure class.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return KindQuota
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	default:
		return KindMalformed
	}
}

func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
