// Package region maps free-form campaign regions to the language and cultural
// framing used when localizing creatives.
package region

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Options struct {
	DefaultLanguage language.Tag
	Logger          *slog.Logger
}

type Resolution struct {
	Input     string
	Language  language.Tag
	Country   *Country
	Subregion string
	Matched   bool
}

// Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	defaultLang language.Tag
	logger      *slog.Logger

	countries  []Country
	byName     map[string]int
	byCode     map[string]int
	subregions map[string]subregionEntry
	culture    map[string]string
	labels     map[string]string
}

type subregionEntry struct {
	name     string
	country  int
	language language.Tag
}

func NewResolver(t Table, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	def := opts.DefaultLanguage
	if def == language.Und {
		def = language.English
	}

	r := &Resolver{
		defaultLang: def,
		logger:      logger,
		countries:   make([]Country, len(t.Countries)),
		byName:      make(map[string]int, len(t.Countries)+len(t.Aliases)),
		byCode:      make(map[string]int, len(t.Countries)),
		subregions:  make(map[string]subregionEntry, len(t.Subregions)),
		culture:     make(map[string]string, len(t.Culture)),
		labels:      make(map[string]string, len(t.Labels)),
	}
	for i, c := range t.Countries {
		c.Languages = append([]language.Tag(nil), c.Languages...)
		r.countries[i] = c
		r.byName[normalize(c.Name)] = i
		r.byCode[normalize(c.Code)] = i
	}
	for alias, code := range t.Aliases {
		if i, ok := r.byCode[normalize(code)]; ok {
			r.byName[normalize(alias)] = i
		}
	}
	for _, s := range t.Subregions {
		i, ok := r.byCode[normalize(s.Country)]
		if !ok {
			logger.Warn("region table: subregion references unknown country", "subregion", s.Name, "country", s.Country)
			continue
		}
		r.subregions[normalize(s.Name)] = subregionEntry{name: s.Name, country: i, language: language.Make(s.Language)}
	}
	for k, v := range t.Culture {
		r.culture[normalize(k)] = v
	}
	for k, v := range t.Labels {
		r.labels[normalize(k)] = v
	}
	return r
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (r *Resolver) DefaultLanguage() language.Tag { return r.defaultLang }

// Resolve matches region against sub-national regions, country names, ISO
// codes and aliases, in that order. Matching is exact after case folding and
// whitespace trimming; anything else falls back to the default language.
func (r *Resolver) Resolve(region string) Resolution {
	key := normalize(region)
	res := Resolution{Input: strings.TrimSpace(region), Language: r.defaultLang}
	if key == "" {
		return res
	}

	if s, ok := r.subregions[key]; ok {
		c := r.countries[s.country]
		res.Language = s.language
		res.Country = &c
		res.Subregion = s.name
		res.Matched = true
		return res
	}

	i, ok := r.byName[key]
	if !ok {
		i, ok = r.byCode[key]
	}
	if !ok {
		r.logger.Debug("region not in table, using default language", "region", res.Input, "language", r.defaultLang.String())
		return res
	}
	c := r.countries[i]
	res.Language = c.Language
	res.Country = &c
	res.Matched = true
	return res
}

// CulturalContext returns the framing appended to generation and translation
// prompts for region.
func (r *Resolver) CulturalContext(region string) string {
	if v, ok := r.lookup(r.culture, region); ok {
		return v
	}
	name := strings.TrimSpace(region)
	if name == "" {
		name = "local"
	}
	return name + " culture and lifestyle"
}

// Label returns the provenance line drawn on the creative.
func (r *Resolver) Label(region string) string {
	if v, ok := r.lookup(r.labels, region); ok {
		return v
	}
	if name := strings.TrimSpace(region); name != "" {
		return "Made in " + name
	}
	return ""
}

func (r *Resolver) lookup(m map[string]string, region string) (string, bool) {
	if v, ok := m[normalize(region)]; ok {
		return v, true
	}
	res := r.Resolve(region)
	if res.Subregion != "" {
		if v, ok := m[normalize(res.Subregion)]; ok {
			return v, true
		}
	}
	if res.Country != nil {
		if v, ok := m[normalize(res.Country.Name)]; ok {
			return v, true
		}
	}
	return "", false
}

// Countries returns a copy of the table sorted by name.
func (r *Resolver) Countries() []Country {
	out := make([]Country, len(r.countries))
	copy(out, r.countries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search matches query against country names, ISO codes and primary language
// names. An empty query returns every country.
func (r *Resolver) Search(query string) []Country {
	q := normalize(query)
	all := r.Countries()
	if q == "" {
		return all
	}
	out := make([]Country, 0, 8)
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			strings.ToLower(c.Code) == q ||
			strings.Contains(strings.ToLower(LanguageName(c.Language)), q) {
			out = append(out, c)
		}
	}
	return out
}

// LanguageName renders tag in English ("German", "Japanese").
func LanguageName(tag language.Tag) string {
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
