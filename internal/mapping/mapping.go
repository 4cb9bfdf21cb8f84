// Package mapping builds and persists the clip mapping artifact consumed by
// the downstream assembly tool.
//
// The artifact records every scanned clip, whether or not the run exported
// it: which clips came from which source material, each clip's duration, its
// native start frame, and its start frame on the gap-adjusted timeline.
package mapping

import (
	"sort"
	"time"

	"clipexport/internal/timeline"
	"clipexport/internal/timing"
)

// TimestampLayout is the local-time layout of GeneratedAt.
const TimestampLayout = "2006-01-02T15:04:05"

// Meta carries the run-level fields stamped onto the artifact.
type Meta struct {
	Locale       string
	SequenceName string
	GeneratedAt  time.Time
}

// Artifact is the clip_mapping.json document. Map keys are clip or source
// indices and are serialized in ascending numeric order.
type Artifact struct {
	GeneratedAt       string          `json:"generatedAt"`
	Locale            string          `json:"locale"`
	SequenceName      string          `json:"sequenceName"`
	TotalClips        int             `json:"totalClips"`
	SourceToClips     map[int][]int   `json:"sourceToClips"`
	ClipToSource      map[int]int     `json:"clipToSource"`
	ClipDurations     map[int]float64 `json:"clipDurations"`
	ClipStartFramesPR map[int]int     `json:"clipStartFramesPR"`
	ClipStartFrames   map[int]int     `json:"clipStartFrames"`
}

// Build aggregates clips and their timing into an artifact. Every clip is
// recorded regardless of decisions, which only govern encoding and cleanup.
// Clips without a source index are left out of the source tables.
func Build(clips []timeline.Clip, decisions []bool, records []timing.Record, meta Meta) Artifact {
	generated := meta.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	a := Artifact{
		GeneratedAt:       generated.Local().Format(TimestampLayout),
		Locale:            meta.Locale,
		SequenceName:      meta.SequenceName,
		TotalClips:        len(clips),
		SourceToClips:     make(map[int][]int),
		ClipToSource:      make(map[int]int),
		ClipDurations:     make(map[int]float64, len(clips)),
		ClipStartFramesPR: make(map[int]int, len(clips)),
		ClipStartFrames:   make(map[int]int, len(clips)),
	}
	for i, clip := range clips {
		if i < len(records) {
			rec := records[i]
			a.ClipDurations[clip.Index] = rec.DurationSeconds
			a.ClipStartFramesPR[clip.Index] = rec.NativeStartFrame
			a.ClipStartFrames[clip.Index] = rec.GapStartFrame
		}
		src, ok := clip.Source()
		if !ok {
			continue
		}
		a.SourceToClips[src] = append(a.SourceToClips[src], clip.Index)
		a.ClipToSource[clip.Index] = src
	}
	return a
}

// ClipsForSource returns the clip indices cut from source, in clip order.
func (a Artifact) ClipsForSource(source int) []int {
	return a.SourceToClips[source]
}

// Sources returns the source indices present in the artifact, ascending.
func (a Artifact) Sources() []int {
	return sortedKeys(a.SourceToClips)
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
