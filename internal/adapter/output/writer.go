package output

import (
	"bufio"
	"errors"
	"io"
	"sync"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

// Writer is a watcher.Sink that formats each update and flushes it
// immediately, so line-buffered consumers see it without delay.
type Writer struct {
	mu        sync.Mutex
	w         *bufio.Writer
	formatter Formatter
}

var _ watcher.Sink = (*Writer)(nil)

// NewWriter creates a Writer.
func NewWriter(w io.Writer, f Formatter) *Writer {
	return &Writer{w: bufio.NewWriter(w), formatter: f}
}

// Emit writes and flushes one update.
func (w *Writer) Emit(u volume.Update) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.formatter.Format(w.w, u); err != nil {
		return err
	}
	return w.w.Flush()
}

// SetFormatter replaces the formatter used for subsequent updates.
func (w *Writer) SetFormatter(f Formatter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.formatter = f
}

// Fanout returns a sink that emits to every sink in order. All sinks are
// attempted; their errors are joined.
func Fanout(sinks ...watcher.Sink) watcher.Sink {
	return watcher.SinkFunc(func(u volume.Update) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Emit(u); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
