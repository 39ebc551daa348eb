package variant

import (
	"fmt"
	"strings"
)

// Variant is one of the fixed output aspect ratios every product is rendered in.
type Variant int

const (
	Square Variant = iota
	Landscape
	Portrait
)

type Spec struct {
	Name   string // "square"
	Ratio  string // "1:1"
	Dir    string // "1x1"
	Width  int
	Height int
}

var specs = [...]Spec{
	Square:    {Name: "square", Ratio: "1:1", Dir: "1x1", Width: 1024, Height: 1024},
	Landscape: {Name: "landscape", Ratio: "16:9", Dir: "16x9", Width: 1024, Height: 576},
	Portrait:  {Name: "portrait", Ratio: "9:16", Dir: "9x16", Width: 576, Height: 1024},
}

// All returns every variant in the fixed output order.
func All() []Variant {
	return []Variant{Square, Landscape, Portrait}
}

func (v Variant) Valid() bool {
	return v >= Square && v <= Portrait
}

func (v Variant) Spec() Spec {
	if !v.Valid() {
		return Spec{}
	}
	return specs[v]
}

func (v Variant) String() string {
	if !v.Valid() {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return specs[v].Name
}

func (v Variant) Ratio() string { return v.Spec().Ratio }

func (v Variant) Dir() string { return v.Spec().Dir }

// Parse accepts a variant name ("square"), ratio ("1:1") or directory ("1x1").
func Parse(value string) (Variant, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, v := range All() {
		s := v.Spec()
		if value == s.Name || value == s.Ratio || value == s.Dir {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", value)
}

func (v Variant) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid variant %d", int(v))
	}
	return []byte(v.Ratio()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
