package audio

import (
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

// Options configures the feedback sound.
type Options struct {
	File   string // empty plays the built-in tone
	Volume int    // 0-100
}

// Feedback is a watcher.Sink that plays a sound for every volume change.
// The initial reading and muted updates are silent.
type Feedback struct {
	mu     sync.Mutex
	logger *slog.Logger
	player *Player
	sound  *beep.Buffer
	seen   bool

	play func(*beep.Buffer) error
}

var _ watcher.Sink = (*Feedback)(nil)

// NewFeedback loads the sound up front so Emit never decodes.
func NewFeedback(opts Options, logger *slog.Logger) (*Feedback, error) {
	if logger == nil {
		logger = slog.Default()
	}
	player := NewPlayer(logger)
	f := &Feedback{
		logger: logger,
		player: player,
		play:   player.Play,
	}
	if err := f.SetOptions(opts); err != nil {
		return nil, err
	}
	return f, nil
}

// SetOptions reloads the sound and volume. On error the previous sound
// stays in use.
func (f *Feedback) SetOptions(opts Options) error {
	sound, err := f.player.Load(opts.File)
	if err != nil {
		return err
	}
	f.player.SetVolume(float64(opts.Volume) / 100)

	f.mu.Lock()
	f.sound = sound
	f.mu.Unlock()

	f.logger.Debug("feedback sound loaded", "file", opts.File, "volume", opts.Volume)
	return nil
}

// Emit plays the sound unless u is the first update or muted.
func (f *Feedback) Emit(u volume.Update) error {
	f.mu.Lock()
	first := !f.seen
	f.seen = true
	sound := f.sound
	f.mu.Unlock()

	if first || u.Muted {
		return nil
	}
	return f.play(sound)
}

// Close releases the audio device.
func (f *Feedback) Close() error {
	f.player.Close()
	return nil
}
