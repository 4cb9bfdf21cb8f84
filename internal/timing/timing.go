// Package timing converts clip tick spans into seconds and frames and lays
// the clips out on two timelines: the native one, where each clip keeps its
// own sequence position, and the gap-adjusted one, where clips are packed
// back to back with per-line gaps between them.
package timing

import (
	"math"

	"clipexport/internal/annotation"
	"clipexport/internal/timeline"
)

// TicksPerSecond is the host's fixed tick rate.
const TicksPerSecond int64 = 254016000000

// DefaultFrameRate is used when neither the sequence rate nor its timebase
// is usable.
const DefaultFrameRate = 30.0

// Record is the timing of one clip.
type Record struct {
	ClipIndex        int
	DurationSeconds  float64
	NativeStartFrame int
	GapStartFrame    int
	GapFrames        int
}

// ResolveFrameRate returns rate when it is a positive finite number,
// otherwise TicksPerSecond/timebase when timebase is positive, otherwise
// fallback (or DefaultFrameRate when fallback is not positive).
func ResolveFrameRate(rate *float64, timebase int64, fallback float64) float64 {
	if rate != nil && *rate > 0 && !math.IsInf(*rate, 0) && !math.IsNaN(*rate) {
		return *rate
	}
	if timebase > 0 {
		return float64(TicksPerSecond) / float64(timebase)
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultFrameRate
}

// Seconds converts ticks to seconds.
func Seconds(ticks int64) float64 {
	return float64(ticks) / float64(TicksPerSecond)
}

// NativeFrame returns round(ticks / TicksPerSecond * fps).
func NativeFrame(ticks int64, fps float64) int {
	return int(jsRound(Seconds(ticks) * fps))
}

// DurationSeconds returns the span length in seconds kept to three decimals.
func DurationSeconds(startTicks, endTicks int64) float64 {
	return jsRound(Seconds(endTicks-startTicks)*1000) / 1000
}

// DurationFrames converts a duration in seconds to a whole frame count.
func DurationFrames(seconds, fps float64) int {
	return int(jsRound(seconds * fps))
}

// Resolve computes timing for clips in index order. Each clip takes the gap
// of its own annotation line (line i for clip i), or defaultGap when the
// annotation is shorter. The first clip never gets a leading gap.
func Resolve(clips []timeline.Clip, fps float64, lines []annotation.Line, defaultGap int) []Record {
	records := make([]Record, len(clips))
	cursor := 0
	for i, clip := range clips {
		gap := 0
		if i > 0 {
			gap = annotation.GapAt(lines, i, defaultGap)
			cursor += gap
		}
		duration := DurationSeconds(clip.StartTicks, clip.EndTicks)
		records[i] = Record{
			ClipIndex:        clip.Index,
			DurationSeconds:  duration,
			NativeStartFrame: NativeFrame(clip.StartTicks, fps),
			GapStartFrame:    cursor,
			GapFrames:        gap,
		}
		cursor += DurationFrames(duration, fps)
	}
	return records
}

// TotalFrames returns the length of the gap-adjusted timeline.
func TotalFrames(records []Record, fps float64) int {
	if len(records) == 0 {
		return 0
	}
	last := records[len(records)-1]
	return last.GapStartFrame + DurationFrames(last.DurationSeconds, fps)
}

// jsRound rounds to the nearest integer with ties toward positive infinity.
// Adding 0.5 before flooring would misround values just below a half.
func jsRound(v float64) float64 {
	r := math.Floor(v)
	if v-r >= 0.5 {
		r++
	}
	return r
}
