package catalog

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Catalog is the operator-maintained allow-list of upstream services.
type Catalog struct {
	Services []Entry `json:"services" yaml:"services" validate:"dive"`
}

// Entry curates one upstream service. ID is the join key to the panel's
// service id; everything else overrides or decorates the upstream record.
type Entry struct {
	ID          int64    `json:"id" yaml:"id" validate:"gt=0"`
	Social      string   `json:"social" yaml:"social" validate:"required"`
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Visible     *bool    `json:"visible,omitempty" yaml:"visible"`
	Enabled     *bool    `json:"enabled,omitempty" yaml:"enabled"`
	Order       *int     `json:"order,omitempty" yaml:"order"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Price       *float64 `json:"price,omitempty" yaml:"price" validate:"omitempty,gte=0"`
	Markup      *float64 `json:"markup,omitempty" yaml:"markup" validate:"omitempty,gte=0"`
	Min         *Bound   `json:"min,omitempty" yaml:"min" validate:"omitempty,gte=0"`
	Max         *Bound   `json:"max,omitempty" yaml:"max" validate:"omitempty,gte=0"`
	Fields      []string `json:"fields,omitempty" yaml:"fields"`
}

// Bound is a quantity limit. Hand-edited files sometimes carry fractional
// limits like 10.5; those round to the nearest whole unit.
type Bound int64

// Int64 returns the limit as a plain quantity.
func (b Bound) Int64() int64 { return int64(b) }

func (b *Bound) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("quantity limit: %w", err)
	}
	return b.set(f)
}

func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	var f float64
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("quantity limit: %w", err)
	}
	return b.set(f)
}

func (b *Bound) set(f float64) error {
	r := math.Round(f)
	if math.IsNaN(r) || math.IsInf(r, 0) || r >= math.MaxInt64 || r <= math.MinInt64 {
		return fmt.Errorf("quantity limit %v out of range", f)
	}
	*b = Bound(r)
	return nil
}

// IsVisible defaults to true when the file omits the flag.
func (e Entry) IsVisible() bool { return e.Visible == nil || *e.Visible }

// IsEnabled defaults to true when the file omits the flag.
func (e Entry) IsEnabled() bool { return e.Enabled == nil || *e.Enabled }

// Empty reports whether the catalog curates nothing. A nil catalog is empty.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.Services) == 0
}

// Enabled returns the first enabled entry for id.
func (c *Catalog) Enabled(id int64) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, e := range c.Services {
		if e.ID == id && e.IsEnabled() {
			return e, true
		}
	}
	return Entry{}, false
}
