package testsupport

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"clipexport/internal/timeline"
	"clipexport/internal/timing"
)

// TimelineClip describes one clip for NewSequence. Clips are laid end to end.
type TimelineClip struct {
	SourceName string
	Seconds    float64
}

// NewSequence builds a single-video-track sequence whose clips start at zero
// and follow each other without gaps.
func NewSequence(name, treePath string, fps float64, clips ...TimelineClip) timeline.Sequence {
	items := make([]timeline.TrackItem, 0, len(clips))
	var cursor int64
	for _, clip := range clips {
		length := int64(math.Round(clip.Seconds * float64(timing.TicksPerSecond)))
		items = append(items, timeline.TrackItem{
			Name:       clip.SourceName,
			SourceName: clip.SourceName,
			StartTicks: timeline.Ticks(cursor),
			EndTicks:   timeline.Ticks(cursor + length),
		})
		cursor += length
	}
	seq := timeline.Sequence{
		Name:        name,
		TreePath:    treePath,
		VideoTracks: []timeline.Track{{Clips: items}},
	}
	if fps > 0 {
		seq.FrameRate = &fps
	}
	return seq
}

// WriteTimeline encodes sequences as a timeline document at path.
func WriteTimeline(t testing.TB, path string, sequences ...timeline.Sequence) {
	t.Helper()

	doc := timeline.Document{Project: "test", Sequences: sequences}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal timeline: %v", err)
	}
	WriteText(t, path, string(data))
}

// WriteText writes content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
