package region

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Country struct {
	Name      string
	Code      string
	Language  language.Tag
	Languages []language.Tag
	Area      string
}

type Subregion struct {
	Name     string `yaml:"name"`
	Country  string `yaml:"country"`
	Language string `yaml:"language"`
}

// Table is the raw data a Resolver is built from. A Resolver copies what it
// needs, so mutating a Table after NewResolver has no effect on lookups.
type Table struct {
	Countries  []Country
	Aliases    map[string]string
	Subregions []Subregion
	Culture    map[string]string
	Labels     map[string]string
}

func DefaultTable() Table {
	t := Table{
		Countries:  make([]Country, 0, len(builtinCountries)),
		Aliases:    make(map[string]string, len(builtinAliases)),
		Subregions: append([]Subregion(nil), builtinSubregions...),
		Culture:    make(map[string]string, len(builtinCulture)),
		Labels:     make(map[string]string, len(builtinLabels)),
	}
	for _, row := range builtinCountries {
		t.Countries = append(t.Countries, row.country())
	}
	for k, v := range builtinAliases {
		t.Aliases[k] = v
	}
	for k, v := range builtinCulture {
		t.Culture[k] = v
	}
	for k, v := range builtinLabels {
		t.Labels[k] = v
	}
	return t
}

func (r countryRow) country() Country {
	c := Country{Name: r.name, Code: r.code, Area: r.area}
	for _, code := range r.langs {
		c.Languages = append(c.Languages, language.Make(code))
	}
	if len(c.Languages) > 0 {
		c.Language = c.Languages[0]
	}
	return c
}

type fileCountry struct {
	Name      string   `yaml:"name"`
	Code      string   `yaml:"code"`
	Languages []string `yaml:"languages"`
	Area      string   `yaml:"area"`
}

type fileTable struct {
	Countries  []fileCountry     `yaml:"countries"`
	Aliases    map[string]string `yaml:"aliases"`
	Subregions []Subregion       `yaml:"subregions"`
	Culture    map[string]string `yaml:"culture"`
	Labels     map[string]string `yaml:"labels"`
}

// LoadOverrides reads a YAML file and merges it over base. Countries are
// replaced by code, everything else by key.
func LoadOverrides(base Table, path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read region table: %w", err)
	}
	var ft fileTable
	if err := yaml.Unmarshal(raw, &ft); err != nil {
		return Table{}, fmt.Errorf("parse region table: %w", err)
	}
	return base.merge(ft)
}

func (t Table) merge(ft fileTable) (Table, error) {
	out := Table{
		Countries:  append([]Country(nil), t.Countries...),
		Aliases:    copyMap(t.Aliases),
		Subregions: append([]Subregion(nil), t.Subregions...),
		Culture:    copyMap(t.Culture),
		Labels:     copyMap(t.Labels),
	}

	byCode := make(map[string]int, len(out.Countries))
	for i, c := range out.Countries {
		byCode[strings.ToUpper(c.Code)] = i
	}
	for _, fc := range ft.Countries {
		code := strings.ToUpper(strings.TrimSpace(fc.Code))
		if code == "" || strings.TrimSpace(fc.Name) == "" || len(fc.Languages) == 0 {
			return Table{}, fmt.Errorf("region table: country %q needs name, code and languages", fc.Name)
		}
		c := Country{Name: strings.TrimSpace(fc.Name), Code: code, Area: fc.Area}
		for _, l := range fc.Languages {
			tag, err := language.Parse(l)
			if err != nil {
				return Table{}, fmt.Errorf("region table: country %s: %w", code, err)
			}
			c.Languages = append(c.Languages, tag)
		}
		c.Language = c.Languages[0]
		if i, ok := byCode[code]; ok {
			out.Countries[i] = c
			continue
		}
		byCode[code] = len(out.Countries)
		out.Countries = append(out.Countries, c)
	}

	for _, s := range ft.Subregions {
		if _, err := language.Parse(s.Language); err != nil {
			return Table{}, fmt.Errorf("region table: subregion %q: %w", s.Name, err)
		}
		out.Subregions = append(out.Subregions, s)
	}
	for k, v := range ft.Aliases {
		out.Aliases[k] = v
	}
	for k, v := range ft.Culture {
		out.Culture[k] = v
	}
	for k, v := range ft.Labels {
		out.Labels[k] = v
	}
	return out, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
