// Package campaign runs a brief through localization, generation, compositing
// and storage for every product and variant, and aggregates the outcome.
package campaign

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"creative-automation/internal/compliance"
	"creative-automation/internal/generate"
	"creative-automation/internal/variant"
)

var ErrInvalidBrief = errors.New("invalid brief")

type Brief struct {
	Products []string `json:"products" yaml:"products"`
	Region   string   `json:"region" yaml:"region"`
	Audience string   `json:"audience" yaml:"audience"`
	Message  string   `json:"message" yaml:"message"`
}

// Validate returns a trimmed copy of b or an error wrapping ErrInvalidBrief.
func (b Brief) Validate() (Brief, error) {
	if len(b.Products) == 0 {
		return Brief{}, fmt.Errorf("%w: at least one product is required", ErrInvalidBrief)
	}
	out := Brief{
		Products: make([]string, len(b.Products)),
		Region:   strings.TrimSpace(b.Region),
		Audience: strings.TrimSpace(b.Audience),
		Message:  strings.TrimSpace(b.Message),
	}
	for i, p := range b.Products {
		p = strings.TrimSpace(p)
		if p == "" {
			return Brief{}, fmt.Errorf("%w: product %d is blank", ErrInvalidBrief, i+1)
		}
		out.Products[i] = p
	}
	return out, nil
}

type Attempt = generate.Attempt

type AssetStatus string

const (
	StatusProduced AssetStatus = "produced"
	StatusFailed   AssetStatus = "failed"
)

type AssetResult struct {
	Product    string          `json:"product"`
	Variant    variant.Variant `json:"variant"`
	Status     AssetStatus     `json:"status"`
	Path       string          `json:"path,omitempty"`
	Attempts   []Attempt       `json:"attempts"`
	Composited bool            `json:"composited"`
	Error      string          `json:"error,omitempty"`
}

type Campaign struct {
	ID                  string            `json:"campaign_id"`
	Brief               Brief             `json:"brief"`
	CreatedAt           time.Time         `json:"created_at"`
	Language            string            `json:"language"`
	RegionMatched       bool              `json:"region_matched"`
	LocalizedMessage    string            `json:"localized_message"`
	TranslationFallback bool              `json:"translation_fallback"`
	Assets              []AssetResult     `json:"assets"`
	Compliance          compliance.Result `json:"compliance"`
}

// Produced returns the assets that were stored successfully, in order.
func (c *Campaign) Produced() []AssetResult {
	out := make([]AssetResult, 0, len(c.Assets))
	for _, a := range c.Assets {
		if a.Status == StatusProduced {
			out = append(out, a)
		}
	}
	return out
}

// Outputs maps each variant to the first produced path for it.
func (c *Campaign) Outputs() map[string]string {
	out := make(map[string]string, len(variant.All()))
	for _, a := range c.Assets {
		if a.Status != StatusProduced {
			continue
		}
		if _, ok := out[a.Variant.Ratio()]; !ok {
			out[a.Variant.Ratio()] = a.Path
		}
	}
	return out
}

// Summary is a one-line outcome, e.g. "5 of 6 produced".
func (c *Campaign) Summary() string {
	return fmt.Sprintf("%d of %d produced", len(c.Produced()), len(c.Assets))
}
