package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage"`
}

// WaybarFormatter writes one Waybar status object per update, suitable for
// a custom module with "return-type": "json".
type WaybarFormatter struct{}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter() *WaybarFormatter {
	return &WaybarFormatter{}
}

// Format writes the status for u.
func (f *WaybarFormatter) Format(w io.Writer, u volume.Update) error {
	return json.NewEncoder(w).Encode(StatusFor(u))
}

// StatusFor builds the Waybar status for an update. The alt and class
// fields carry the volume level so format-icons and CSS can key on it.
func StatusFor(u volume.Update) WaybarStatus {
	text := fmt.Sprintf("%d%%", u.Percent)
	tooltip := fmt.Sprintf("%s: %d%%", u.Device, u.Percent)
	if u.Muted {
		text = "muted"
		tooltip += " (muted)"
	}
	return WaybarStatus{
		Text:       text,
		Alt:        u.Level(),
		Tooltip:    tooltip,
		Class:      u.Level(),
		Percentage: u.Percent,
	}
}

// ErrorStatus is printed when no status can be produced.
func ErrorStatus(err error) WaybarStatus {
	s := WaybarStatus{Alt: "error", Class: "error"}
	if err != nil {
		s.Tooltip = err.Error()
	}
	return s
}

// WriteStatus writes a status object as one JSON line.
func WriteStatus(w io.Writer, s WaybarStatus) error {
	return json.NewEncoder(w).Encode(s)
}
