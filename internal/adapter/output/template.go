package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// DefaultTemplate renders like the plain format.
const DefaultTemplate = "volume = {{.Percent}} muted = {{.MutedFlag}}"

// TemplateFormatter renders updates through a user supplied text/template.
// A trailing newline is added when the template output lacks one.
type TemplateFormatter struct {
	template *template.Template
}

// NewTemplateFormatter parses the template source. An empty source uses
// DefaultTemplate.
func NewTemplateFormatter(src string) (*TemplateFormatter, error) {
	if src == "" {
		src = DefaultTemplate
	}
	tmpl, err := template.New("update").Funcs(templateFuncs()).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid output template: %w", err)
	}
	return &TemplateFormatter{template: tmpl}, nil
}

// Format executes the template for u.
func (f *TemplateFormatter) Format(w io.Writer, u volume.Update) error {
	var sb strings.Builder
	if err := f.template.Execute(&sb, u); err != nil {
		return err
	}
	out := sb.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// bar renders percent as a fixed width gauge, e.g. bar 10 .Percent.
		"bar": func(width, percent int) (string, error) {
			if width <= 0 {
				return "", errors.New("bar width must be positive")
			}
			filled := percent * width / 100
			filled = max(0, min(filled, width))
			return strings.Repeat("█", filled) + strings.Repeat("░", width-filled), nil
		},
		"icon": levelIcon,
		"upper": strings.ToUpper,
	}
}

// levelIcon returns a glyph for a volume level.
func levelIcon(level string) string {
	switch level {
	case volume.LevelMuted:
		return "🔇"
	case volume.LevelLow:
		return "🔈"
	case volume.LevelMedium:
		return "🔉"
	default:
		return "🔊"
	}
}
