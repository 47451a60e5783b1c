package audio

import (
	"errors"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/volwatch/internal/volume"
)

func newTestFeedback(t *testing.T) (*Feedback, *int) {
	t.Helper()
	f, err := NewFeedback(Options{Volume: 40}, nil)
	require.NoError(t, err)

	plays := 0
	f.play = func(b *beep.Buffer) error {
		assert.NotNil(t, b)
		plays++
		return nil
	}
	return f, &plays
}

func TestFeedback_SkipsFirstUpdate(t *testing.T) {
	f, plays := newTestFeedback(t)

	require.NoError(t, f.Emit(volume.Update{Percent: 40}))
	assert.Equal(t, 0, *plays)

	require.NoError(t, f.Emit(volume.Update{Percent: 45}))
	require.NoError(t, f.Emit(volume.Update{Percent: 50}))
	assert.Equal(t, 2, *plays)
}

func TestFeedback_SilentWhenMuted(t *testing.T) {
	f, plays := newTestFeedback(t)

	require.NoError(t, f.Emit(volume.Update{Percent: 40}))
	require.NoError(t, f.Emit(volume.Update{Percent: 40, Muted: true}))
	assert.Equal(t, 0, *plays)

	require.NoError(t, f.Emit(volume.Update{Percent: 40}))
	assert.Equal(t, 1, *plays)
}

func TestFeedback_Volume(t *testing.T) {
	f, _ := newTestFeedback(t)
	assert.InDelta(t, 0.4, f.player.Volume(), 1e-9)

	require.NoError(t, f.SetOptions(Options{Volume: 100}))
	assert.Equal(t, 1.0, f.player.Volume())
}

func TestFeedback_SetOptionsKeepsSoundOnError(t *testing.T) {
	f, _ := newTestFeedback(t)
	before := f.sound

	err := f.SetOptions(Options{File: "/nonexistent/sound.wav", Volume: 10})
	assert.Error(t, err)
	assert.Same(t, before, f.sound)
	assert.InDelta(t, 0.4, f.player.Volume(), 1e-9)
}

func TestFeedback_PlayError(t *testing.T) {
	f, _ := newTestFeedback(t)
	f.play = func(*beep.Buffer) error { return errors.New("no audio device") }

	require.NoError(t, f.Emit(volume.Update{Percent: 40}))
	assert.ErrorContains(t, f.Emit(volume.Update{Percent: 41}), "no audio device")
}

func TestNewFeedback_BadFile(t *testing.T) {
	_, err := NewFeedback(Options{File: "/nonexistent/sound.ogg"}, nil)
	assert.Error(t, err)
}
