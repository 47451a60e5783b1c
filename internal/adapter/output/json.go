package output

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// JSONFormatter formats updates as newline-delimited JSON.
type JSONFormatter struct{}

// jsonRecord is the JSON shape of one update. EventID is a ULID so
// consumers can order and deduplicate records.
type jsonRecord struct {
	EventID   string    `json:"event_id"`
	Device    string    `json:"device"`
	Volume    int       `json:"volume"`
	Muted     bool      `json:"muted"`
	Timestamp time.Time `json:"timestamp"`
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes one update as a single JSON line.
func (f *JSONFormatter) Format(w io.Writer, u volume.Update) error {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	id, err := ulid.New(ulid.Timestamp(at), rand.Reader)
	if err != nil {
		return err
	}
	rec := jsonRecord{
		EventID:   id.String(),
		Device:    u.Device,
		Volume:    u.Percent,
		Muted:     u.Muted,
		Timestamp: at,
	}
	return json.NewEncoder(w).Encode(rec)
}
