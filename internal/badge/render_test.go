package badge

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitbadges/gitbadges/internal/domain"
)

// setupRenderer writes the given templates into a fresh directory and
// returns a renderer plus the path badges get written to.
func setupRenderer(t *testing.T, templates map[string]string) (*Renderer, string) {
	t.Helper()
	dir := t.TempDir()
	templateDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templateDir, 0o755))
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(templateDir, name), []byte(content), 0o644))
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	outputDir := filepath.Join(dir, "generated")
	return NewRenderer(templateDir, outputDir, logger), outputDir
}

func readBadge(t *testing.T, outputDir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestRenderOverview(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		overview domain.Overview
		contains []string
	}{
		{
			name:     "lines changed is the sum of additions and deletions",
			template: `changed: {{ lines_changed }}`,
			overview: domain.Overview{Lines: domain.LineDelta{Additions: 120, Deletions: 30}, DaysActive: 1},
			contains: []string{"changed: 150"},
		},
		{
			name:     "velocity uses integer truncation",
			template: `{{ lines_per_day }}`,
			overview: domain.Overview{Lines: domain.LineDelta{Additions: 121, Deletions: 30}, DaysActive: 50},
			contains: []string{"3"},
		},
		{
			name:     "days coding is clamped to at least one",
			template: `days: {{ days_coding }} velocity: {{ lines_per_day }}`,
			overview: domain.Overview{Lines: domain.LineDelta{Additions: 150}, DaysActive: 0},
			contains: []string{"days: 1", "velocity: 150"},
		},
		{
			name:     "numbers get thousands separators",
			template: `{{ stars }} {{ contributions }}`,
			overview: domain.Overview{Stargazers: 1234567, Contributions: 1000, DaysActive: 1},
			contains: []string{"1,234,567", "1,000"},
		},
		{
			name:     "a repeated token is replaced at every occurrence",
			template: `{{ name }} and {{ name }} again`,
			overview: domain.Overview{Name: "octocat", DaysActive: 1},
			contains: []string{"octocat and octocat again"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			renderer, outputDir := setupRenderer(t, map[string]string{overviewFile: tc.template})

			require.NoError(t, renderer.RenderOverview(&tc.overview))

			output := readBadge(t, outputDir, overviewFile)
			for _, want := range tc.contains {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestRenderOverview_EndToEnd(t *testing.T) {
	template := `<svg><text>{{ name }}</text><text>{{ repos }}</text></svg>`
	renderer, outputDir := setupRenderer(t, map[string]string{overviewFile: template})

	overview := domain.Overview{Name: "octocat", RepoCount: 3, DaysActive: 10}
	require.NoError(t, renderer.RenderOverview(&overview))

	output := readBadge(t, outputDir, overviewFile)
	assert.Contains(t, output, "octocat")
	assert.Contains(t, output, ">3<")
	assert.NotContains(t, output, "{{ name }}")
	assert.NotContains(t, output, "{{ repos }}")
}

func TestRenderOverview_MissingTemplate(t *testing.T) {
	renderer, _ := setupRenderer(t, nil)

	err := renderer.RenderOverview(&domain.Overview{DaysActive: 1})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overview template")
}

func TestRenderOverview_OverwritesPreviousBadge(t *testing.T) {
	renderer, outputDir := setupRenderer(t, map[string]string{overviewFile: `{{ stars }}`})

	require.NoError(t, renderer.RenderOverview(&domain.Overview{Stargazers: 1, DaysActive: 1}))
	require.NoError(t, renderer.RenderOverview(&domain.Overview{Stargazers: 2, DaysActive: 1}))

	assert.Equal(t, "2", readBadge(t, outputDir, overviewFile))
}

func TestRenderLanguages(t *testing.T) {
	template := "<div>{{ progress }}</div><ul>{{ lang_list }}</ul>"
	renderer, outputDir := setupRenderer(t, map[string]string{languagesFile: template})

	languages := []domain.LanguageStat{
		{Name: "Go", Size: 50, Color: "#00ADD8", Prop: 62.5},
		{Name: "Python", Size: 30, Color: "", Prop: 37.5},
	}
	require.NoError(t, renderer.RenderLanguages(languages))

	output := readBadge(t, outputDir, languagesFile)

	// Bar segments carry the proportion at three decimal places.
	assert.Contains(t, output, `background-color: #00ADD8;width: 62.500%;`)
	// A missing color falls back to black.
	assert.Contains(t, output, `background-color: #000000;width: 37.500%;`)
	assert.Contains(t, output, `style="fill:#000000;"`)

	// List items are staggered by 150ms each and show two decimals.
	assert.Contains(t, output, `animation-delay: 0ms;`)
	assert.Contains(t, output, `animation-delay: 150ms;`)
	assert.Contains(t, output, `<span class="lang">Go</span>`)
	assert.Contains(t, output, `<span class="percent">62.50%</span>`)
	assert.Contains(t, output, `<span class="percent">37.50%</span>`)

	// Records are rendered in the order given: Go before Python.
	assert.Less(t, strings.Index(output, "Go"), strings.Index(output, "Python"))

	assert.NotContains(t, output, "{{ progress }}")
	assert.NotContains(t, output, "{{ lang_list }}")
}

func TestRenderLanguages_Empty(t *testing.T) {
	template := "bar:{{ progress }};list:{{ lang_list }};"
	renderer, outputDir := setupRenderer(t, map[string]string{languagesFile: template})

	require.NoError(t, renderer.RenderLanguages(nil))

	assert.Equal(t, "bar:;list:;", readBadge(t, outputDir, languagesFile))
}

func TestSubstitute(t *testing.T) {
	out := substitute("{{ a }} {{ b }} {{ a }}", map[string]string{"a": "x", "missing": "y"})
	assert.Equal(t, "x {{ b }} x", out)
}
