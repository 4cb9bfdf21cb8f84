package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Ticks is a host time value. The host serialises ticks as decimal strings,
// hand-written documents tend to use numbers; both are accepted.
type Ticks int64

// UnmarshalJSON accepts either a JSON string or number.
func (t *Ticks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}
	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("ticks: %w", err)
		}
		raw = strings.TrimSpace(unquoted)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("ticks %q: %w", raw, err)
	}
	*t = Ticks(value)
	return nil
}

// Document is the timeline export written by the host.
type Document struct {
	Project   string     `json:"project"`
	Sequences []Sequence `json:"sequences"`
}

// Sequence is one host sequence.
type Sequence struct {
	Name        string   `json:"name"`
	TreePath    string   `json:"treePath"`
	FrameRate   *float64 `json:"frameRate,omitempty"`
	Timebase    Ticks    `json:"timebase"`
	VideoTracks []Track  `json:"videoTracks"`
	AudioTracks []Track  `json:"audioTracks"`
}

// Track holds clips in timeline order.
type Track struct {
	Clips []TrackItem `json:"clips"`
}

// TrackItem is a clip as the host reports it.
type TrackItem struct {
	Name       string `json:"name"`
	SourceName string `json:"sourceName"`
	StartTicks Ticks  `json:"startTicks"`
	EndTicks   Ticks  `json:"endTicks"`
}

// ErrNoSequences is returned when the document holds no sequences.
var ErrNoSequences = errors.New("timeline has no sequences")

// Load reads and decodes a timeline document.
func Load(path string) (*Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("timeline path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return Parse(data)
}

// Parse decodes a timeline document from raw JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse timeline: %w", err)
	}
	return &doc, nil
}
