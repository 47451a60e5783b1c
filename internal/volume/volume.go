// Package volume defines the volume update emitted for the default sink and
// the conversion from PulseAudio channel volumes to a display percentage.
package volume

import (
	"math"
	"time"
)

// Norm is PA_VOLUME_NORM, the channel volume that corresponds to 100%.
const Norm = 0x10000

// Level buckets used for icons and CSS classes.
const (
	LevelMuted  = "muted"
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Update is one accepted volume/mute observation of the default sink.
type Update struct {
	Device  string    `json:"device" yaml:"device"`
	Percent int       `json:"volume" yaml:"volume"`
	Muted   bool      `json:"muted" yaml:"muted"`
	Raw     uint32    `json:"raw" yaml:"raw"`
	At      time.Time `json:"timestamp" yaml:"timestamp"`
}

// NewUpdate builds an Update from the channel volumes reported by the server.
func NewUpdate(device string, channels []uint32, muted bool) Update {
	avg := Average(channels)
	return Update{
		Device:  device,
		Percent: Percent(avg),
		Muted:   muted,
		Raw:     avg,
		At:      time.Now(),
	}
}

// Average returns the arithmetic mean of the channel volumes, truncated like
// pa_cvolume_avg. An empty set averages to 0.
func Average(channels []uint32) uint32 {
	if len(channels) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range channels {
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(channels)))
}

// Percent maps a raw volume linearly onto 0-100% of Norm, rounded to the
// nearest integer with halves going to even, as printf("%.0f") does.
// Values above Norm yield more than 100.
//
// PulseAudio volumes are on a cubic scale; the linear mapping matches what
// pavucontrol displays and is only used for display.
func Percent(avg uint32) int {
	return int(math.RoundToEven(float64(avg) * 100 / Norm))
}

// MutedFlag returns 1 when muted and 0 otherwise.
func (u Update) MutedFlag() int {
	if u.Muted {
		return 1
	}
	return 0
}

// Level classifies the update for icons and styling.
func (u Update) Level() string {
	switch {
	case u.Muted || u.Percent == 0:
		return LevelMuted
	case u.Percent < 34:
		return LevelLow
	case u.Percent < 67:
		return LevelMedium
	default:
		return LevelHigh
	}
}
