// Package output provides output formatters for volume updates.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// Formatter formats a single volume update.
type Formatter interface {
	// Format writes one formatted update to the writer.
	Format(w io.Writer, u volume.Update) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain    FormatType = "plain"
	FormatJSON     FormatType = "json"
	FormatWaybar   FormatType = "waybar"
	FormatYAML     FormatType = "yaml"
	FormatTemplate FormatType = "template"
)

// FormatTypes lists every supported format.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatWaybar, FormatYAML, FormatTemplate}

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	for _, f := range FormatTypes {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (valid: plain, json, waybar, yaml, template)", s)
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string // text/template source for the template format
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatPlain, "":
		return NewPlainFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatWaybar:
		return NewWaybarFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatTemplate:
		return NewTemplateFormatter(opts.Template)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
