package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// YAMLFormatter writes each update as its own YAML document.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes a "---" separated document for u.
func (f *YAMLFormatter) Format(w io.Writer, u volume.Update) error {
	data, err := yaml.Marshal(u)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
