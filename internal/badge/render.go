// Package badge renders SVG badges by substituting aggregated
// statistics into template files.
package badge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/gitbadges/gitbadges/internal/domain"
)

const (
	overviewFile  = "overview.svg"
	languagesFile = "languages.svg"

	// Color used when GitHub reports no color for a language.
	fallbackColor = "#000000"
	// Stagger between language list items in the CSS animation.
	listItemDelayMS = 150
)

// Renderer fills the two SVG templates and writes the results into the
// output directory, creating it on demand.
type Renderer struct {
	templateDir string
	outputDir   string
	logger      *logrus.Logger
}

// NewRenderer creates a new Renderer instance.
func NewRenderer(templateDir, outputDir string, logger *logrus.Logger) *Renderer {
	return &Renderer{
		templateDir: templateDir,
		outputDir:   outputDir,
		logger:      logger,
	}
}

// RenderOverview writes the overview badge for the given statistics.
func (r *Renderer) RenderOverview(overview *domain.Overview) error {
	r.logger.Info("Generating overview badge...")

	template, err := os.ReadFile(filepath.Join(r.templateDir, overviewFile))
	if err != nil {
		r.logger.WithError(err).Error("Failed to generate overview badge.")
		return fmt.Errorf("failed to read overview template: %w", err)
	}

	changed := overview.Lines.Total()
	days := overview.DaysActive
	if days < 1 {
		days = 1
	}
	velocity := changed / int64(days)

	output := substitute(string(template), map[string]string{
		"name":          overview.Name,
		"stars":         humanize.Comma(int64(overview.Stargazers)),
		"forks":         humanize.Comma(int64(overview.Forks)),
		"contributions": humanize.Comma(int64(overview.Contributions)),
		"lines_changed": humanize.Comma(changed),
		"views":         humanize.Comma(int64(overview.Views)),
		"repos":         humanize.Comma(int64(overview.RepoCount)),
		"days_coding":   humanize.Comma(int64(days)),
		"lines_per_day": humanize.Comma(velocity),
	})

	if err := r.write(overviewFile, output); err != nil {
		r.logger.WithError(err).Error("Failed to generate overview badge.")
		return err
	}
	r.logger.Info("Overview badge generated successfully.")
	return nil
}

// RenderLanguages writes the languages badge. The records are rendered
// in the order given; callers sort them by size beforehand.
func (r *Renderer) RenderLanguages(languages []domain.LanguageStat) error {
	r.logger.Info("Generating languages badge...")

	template, err := os.ReadFile(filepath.Join(r.templateDir, languagesFile))
	if err != nil {
		r.logger.WithError(err).Error("Failed to generate languages badge.")
		return fmt.Errorf("failed to read languages template: %w", err)
	}

	var progress, langList strings.Builder
	for i, lang := range languages {
		color := lang.Color
		if color == "" {
			color = fallbackColor
		}
		fmt.Fprintf(&progress,
			`<span style="background-color: %s;width: %.3f%%;" class="progress-item"></span>`,
			color, lang.Prop)
		fmt.Fprintf(&langList, `
<li style="animation-delay: %dms;">
<svg xmlns="http://www.w3.org/2000/svg" class="octicon" style="fill:%s;"
viewBox="0 0 16 16" version="1.1" width="16" height="16"><path
fill-rule="evenodd" d="M8 4a4 4 0 100 8 4 4 0 000-8z"></path></svg>
<span class="lang">%s</span>
<span class="percent">%.2f%%</span>
</li>

`, i*listItemDelayMS, color, lang.Name, lang.Prop)
	}

	output := substitute(string(template), map[string]string{
		"progress":  progress.String(),
		"lang_list": langList.String(),
	})

	if err := r.write(languagesFile, output); err != nil {
		r.logger.WithError(err).Error("Failed to generate languages badge.")
		return err
	}
	r.logger.Info("Languages badge generated successfully.")
	return nil
}

// substitute replaces every occurrence of each literal "{{ key }}"
// token. Tokens absent from the template are left untouched.
func substitute(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{ "+key+" }}", value)
	}
	return template
}

func (r *Renderer) write(name, output string) error {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(r.outputDir, name)
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
