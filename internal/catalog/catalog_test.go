package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalcore/pkg/domain"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tpl, ok := c.Template("morning-temperature-baseline")
	require.True(t, ok)
	assert.Equal(t, 30, tpl.DurationDays)
	assert.Equal(t, domain.CategoryMetabolism, tpl.Category)

	in, ok := tpl.Input("morningTemp")
	require.True(t, ok)
	assert.Equal(t, "°F", in.Unit)
	assert.Less(t, in.Min, 97.2)
	assert.Greater(t, in.Max, 98.0)

	_, ok = c.Template("missing")
	assert.False(t, ok)
}

func TestDefaultCatalogIsSharedAndOrdered(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)

	all := a.Templates()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestByCategory(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	nutrition := c.ByCategory(domain.CategoryNutrition)
	require.Len(t, nutrition, 2)
	for _, tpl := range nutrition {
		assert.Equal(t, domain.CategoryNutrition, tpl.Category)
	}
	assert.Empty(t, c.ByCategory(domain.Category("unknown")))
}

func TestParseRejectsInvalidTemplates(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
templates:
  - id: a
    title: A
    duration_days: 3
    category: sleep
    colour: blue
`,
		"zero duration": `
templates:
  - id: a
    title: A
    duration_days: 0
    category: sleep
`,
		"bad category": `
templates:
  - id: a
    title: A
    duration_days: 3
    category: diet
`,
		"duplicate id": `
templates:
  - {id: a, title: A, duration_days: 3, category: sleep}
  - {id: a, title: B, duration_days: 3, category: sleep}
`,
		"inverted range": `
templates:
  - id: a
    title: A
    duration_days: 3
    category: sleep
    measurement_inputs:
      - {id: x, label: X, unit: h, min: 5, max: 1, step: 1}
`,
		"missing unit": `
templates:
  - id: a
    title: A
    duration_days: 3
    category: sleep
    measurement_inputs:
      - {id: x, label: X, min: 0, max: 1, step: 1}
`,
		"duplicate checklist item": `
templates:
  - id: a
    title: A
    duration_days: 3
    category: sleep
    daily_checklist_items:
      - {id: c, text: one}
      - {id: c, text: two}
`,
		"empty": `templates: []`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
