package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// PlainFormatter writes the classic "volume = N muted = 0|1" line.
type PlainFormatter struct{}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter() *PlainFormatter {
	return &PlainFormatter{}
}

// Format writes one update line.
func (f *PlainFormatter) Format(w io.Writer, u volume.Update) error {
	_, err := fmt.Fprintf(w, "volume = %d muted = %d\n", u.Percent, u.MutedFlag())
	return err
}
