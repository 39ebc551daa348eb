// Package compliance checks a finished campaign's assets and localized text
// before they are handed out.
package compliance

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"creative-automation/internal/variant"
)

type Status string

const (
	StatusApproved Status = "approved"
	StatusFlagged  Status = "flagged"
	StatusRejected Status = "rejected"
	StatusUnknown  Status = "unknown"
)

type Result struct {
	Status Status   `json:"status"`
	Issues []string `json:"issues"`
}

type Asset struct {
	Product string
	Variant variant.Variant
	Path    string
}

type Gate interface {
	Validate(ctx context.Context, assets []Asset, text string) (Result, error)
}

// Unavailable is the result recorded when the gate itself failed. It is never
// approved.
func Unavailable(err error) Result {
	return Result{Status: StatusUnknown, Issues: []string{fmt.Sprintf("compliance check unavailable: %v", err)}}
}

var defaultBlocklist = []string{"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap"}

type RulesOptions struct {
	Blocklist    []string
	MinLength    int
	MaxCapsRatio float64
}

// Rules is the built-in gate. Blocked words reject the campaign; shouting,
// very short copy and campaigns with no produced assets are flagged.
type Rules struct {
	blocked      []blockedWord
	minLength    int
	maxCapsRatio float64
}

type blockedWord struct {
	word string
	re   *regexp.Regexp
}

var _ Gate = (*Rules)(nil)

func NewRules(opts RulesOptions) *Rules {
	words := opts.Blocklist
	if len(words) == 0 {
		words = defaultBlocklist
	}
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = 10
	}
	ratio := opts.MaxCapsRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.7
	}

	r := &Rules{minLength: minLength, maxCapsRatio: ratio}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		r.blocked = append(r.blocked, blockedWord{word: w, re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)})
	}
	return r
}

func (r *Rules) Validate(ctx context.Context, assets []Asset, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var rejected, flagged []string
	for _, b := range r.blocked {
		if b.re.MatchString(text) {
			rejected = append(rejected, fmt.Sprintf("inappropriate language detected: %q", b.word))
		}
	}

	runes := []rune(text)
	if len(runes) > r.minLength {
		upper := 0
		for _, c := range runes {
			if unicode.IsUpper(c) {
				upper++
			}
		}
		if float64(upper)/float64(len(runes)) > r.maxCapsRatio {
			flagged = append(flagged, "excessive use of capital letters")
		}
	}
	if len([]rune(strings.TrimSpace(text))) < r.minLength {
		flagged = append(flagged, fmt.Sprintf("message too short (minimum %d characters)", r.minLength))
	}
	if len(assets) == 0 {
		flagged = append(flagged, "no assets were produced")
	}

	switch {
	case len(rejected) > 0:
		return Result{Status: StatusRejected, Issues: append(rejected, flagged...)}, nil
	case len(flagged) > 0:
		return Result{Status: StatusFlagged, Issues: flagged}, nil
	default:
		return Result{Status: StatusApproved, Issues: []string{}}, nil
	}
}
