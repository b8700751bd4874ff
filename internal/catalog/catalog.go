// Package catalog holds the read-only registry of experiment templates.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"vitalcore/pkg/domain"
)

//go:embed templates.yaml
var embeddedTemplates []byte

type document struct {
	Templates []domain.ExperimentTemplate `yaml:"templates"`
}

// Catalog is an immutable set of templates indexed by id.
type Catalog struct {
	byID  map[string]domain.ExperimentTemplate
	order []string
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(embeddedTemplates)
})

// Default returns the catalog compiled into the binary. It is decoded once per process.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Parse decodes and validates a YAML template document.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return New(doc.Templates)
}

// New validates templates and builds a catalog from them.
func New(templates []domain.ExperimentTemplate) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, errors.New("catalog: no templates")
	}
	c := &Catalog{byID: make(map[string]domain.ExperimentTemplate, len(templates))}
	for _, tpl := range templates {
		if err := validateTemplate(tpl); err != nil {
			return nil, err
		}
		if _, dup := c.byID[tpl.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate template id %q", tpl.ID)
		}
		c.byID[tpl.ID] = tpl
		c.order = append(c.order, tpl.ID)
	}
	sort.Strings(c.order)
	return c, nil
}

func validateTemplate(tpl domain.ExperimentTemplate) error {
	if tpl.ID == "" {
		return errors.New("catalog: template id required")
	}
	if tpl.Title == "" {
		return fmt.Errorf("catalog: template %s: title required", tpl.ID)
	}
	if tpl.DurationDays <= 0 {
		return fmt.Errorf("catalog: template %s: duration_days must be positive", tpl.ID)
	}
	if !tpl.Category.Valid() {
		return fmt.Errorf("catalog: template %s: unknown category %q", tpl.ID, tpl.Category)
	}
	items := make(map[string]struct{}, len(tpl.DailyChecklistItems))
	for _, item := range tpl.DailyChecklistItems {
		if item.ID == "" || item.Text == "" {
			return fmt.Errorf("catalog: template %s: checklist items need id and text", tpl.ID)
		}
		if _, dup := items[item.ID]; dup {
			return fmt.Errorf("catalog: template %s: duplicate checklist item %q", tpl.ID, item.ID)
		}
		items[item.ID] = struct{}{}
	}
	inputs := make(map[string]struct{}, len(tpl.MeasurementInputs))
	for _, in := range tpl.MeasurementInputs {
		if in.ID == "" {
			return fmt.Errorf("catalog: template %s: measurement input id required", tpl.ID)
		}
		if _, dup := inputs[in.ID]; dup {
			return fmt.Errorf("catalog: template %s: duplicate measurement input %q", tpl.ID, in.ID)
		}
		inputs[in.ID] = struct{}{}
		if in.Unit == "" {
			return fmt.Errorf("catalog: template %s: input %s: unit required", tpl.ID, in.ID)
		}
		if in.Min >= in.Max {
			return fmt.Errorf("catalog: template %s: input %s: min must be below max", tpl.ID, in.ID)
		}
		if in.Step <= 0 {
			return fmt.Errorf("catalog: template %s: input %s: step must be positive", tpl.ID, in.ID)
		}
	}
	return nil
}

// Template looks up a template by id.
func (c *Catalog) Template(id string) (domain.ExperimentTemplate, bool) {
	tpl, ok := c.byID[id]
	return tpl, ok
}

// Templates returns every template ordered by id.
func (c *Catalog) Templates() []domain.ExperimentTemplate {
	out := make([]domain.ExperimentTemplate, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ByCategory returns the templates of one category ordered by id.
func (c *Catalog) ByCategory(category domain.Category) []domain.ExperimentTemplate {
	var out []domain.ExperimentTemplate
	for _, id := range c.order {
		if tpl := c.byID[id]; tpl.Category == category {
			out = append(out, tpl)
		}
	}
	return out
}
