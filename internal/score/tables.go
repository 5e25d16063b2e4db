package score

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables holds the fixed lookup data the engine consults: the demographic
// multiplier buckets and the app-mix name sets. Keys are matched
// case-insensitively. Unknown or missing values contribute zero.
type Tables struct {
	Gender     map[string]float64 `yaml:"gender"`
	Marital    map[string]float64 `yaml:"marital"`
	Profession map[string]float64 `yaml:"profession"`
	Country    map[string]float64 `yaml:"country"`

	ProductiveApps []string `yaml:"productive_apps"`
	AddictiveApps  []string `yaml:"addictive_apps"`
}

func DefaultTables() Tables {
	return Tables{
		Gender: map[string]float64{
			"female": 0.05,
			"male":   0.0,
		},
		Marital: map[string]float64{
			"married":  0.1,
			"single":   0.0,
			"divorced": -0.05,
			"widowed":  -0.1,
		},
		Profession: map[string]float64{
			"student":    0.1,
			"technology": 0.05,
			"healthcare": -0.05,
			"unemployed": -0.1,
		},
		Country: map[string]float64{
			"norway":      0.1,
			"denmark":     0.1,
			"netherlands": 0.05,
			"japan":       0.05,
		},
		ProductiveApps: []string{
			"notion", "calendar", "kindle", "duolingo", "headspace", "notes",
		},
		AddictiveApps: []string{
			"instagram", "tiktok", "youtube", "twitter", "facebook", "reddit",
		},
	}
}

// LoadTables reads a YAML overlay and merges it over the defaults. Only the
// sections present in the file are replaced.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	raw, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read score tables: %w", err)
	}
	var overlay Tables
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return tables, fmt.Errorf("parse score tables: %w", err)
	}
	if overlay.Gender != nil {
		tables.Gender = overlay.Gender
	}
	if overlay.Marital != nil {
		tables.Marital = overlay.Marital
	}
	if overlay.Profession != nil {
		tables.Profession = overlay.Profession
	}
	if overlay.Country != nil {
		tables.Country = overlay.Country
	}
	if overlay.ProductiveApps != nil {
		tables.ProductiveApps = overlay.ProductiveApps
	}
	if overlay.AddictiveApps != nil {
		tables.AddictiveApps = overlay.AddictiveApps
	}
	return tables, nil
}
