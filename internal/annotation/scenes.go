package annotation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MaxScene is the highest scene number a scene range may name.
const MaxScene = 999

var (
	sceneMarker  = regexp.MustCompile(`^\[sc(\d+)\]$`)
	sourceMarker = regexp.MustCompile(`^\[(\d+)\]$`)
)

// SceneTable maps a scene number to the source indices listed under it, in
// encounter order.
type SceneTable map[int][]int

// Scenes returns the scene numbers in ascending order.
func (t SceneTable) Scenes() []int {
	out := make([]int, 0, len(t))
	for scene := range t {
		out = append(out, scene)
	}
	sort.Ints(out)
	return out
}

// SceneResult is the outcome of scanning for scene markers.
type SceneResult struct {
	// SourceIndices holds every source index found under a target scene, in
	// file order. Duplicates are kept.
	SourceIndices []int
	Scenes        SceneTable
}

// SceneGap describes one scene whose source indices are not contiguous.
type SceneGap struct {
	Scene   int   `json:"scene"`
	Actual  []int `json:"actual"`
	Missing []int `json:"missing"`
}

// ContinuityError reports scenes with gaps in their source numbering.
type ContinuityError struct {
	Path string
	Gaps []SceneGap
}

func (e *ContinuityError) Error() string {
	var b strings.Builder
	b.WriteString("scene source numbering is not continuous")
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	for _, gap := range e.Gaps {
		fmt.Fprintf(&b, "; scene %d: actual %s, missing %s", gap.Scene, formatInts(gap.Actual), formatInts(gap.Missing))
	}
	return b.String()
}

// ParseSceneMarkers scans text for [scN] headers and [N] source markers and
// collects the markers that belong to one of targets. found is false when no
// source index was collected; callers fall back to source-index selection in
// that case. A non-nil error is always a *ContinuityError.
func ParseSceneMarkers(text string, targets []int) (SceneResult, bool, error) {
	wanted := make(map[int]struct{}, len(targets))
	for _, scene := range targets {
		wanted[scene] = struct{}{}
	}

	result := SceneResult{Scenes: SceneTable{}}
	current := 0
	inTarget := false
	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := sceneMarker.FindStringSubmatch(line); m != nil {
			scene, err := strconv.Atoi(m[1])
			if err != nil {
				inTarget = false
				continue
			}
			current = scene
			_, inTarget = wanted[scene]
			continue
		}
		if !inTarget {
			continue
		}
		if m := sourceMarker.FindStringSubmatch(line); m != nil {
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			result.SourceIndices = append(result.SourceIndices, idx)
			result.Scenes[current] = append(result.Scenes[current], idx)
		}
	}

	if len(result.SourceIndices) == 0 {
		return result, false, nil
	}
	if gaps := ValidateContinuity(result.Scenes); len(gaps) > 0 {
		return result, true, &ContinuityError{Gaps: gaps}
	}
	return result, true, nil
}

// ValidateContinuity reports, per scene with at least two entries, the
// integers missing from the sorted run. Scenes are reported in ascending order.
func ValidateContinuity(table SceneTable) []SceneGap {
	var gaps []SceneGap
	for _, scene := range table.Scenes() {
		indices := table[scene]
		if len(indices) < 2 {
			continue
		}
		sorted := append([]int(nil), indices...)
		sort.Ints(sorted)
		var missing []int
		for i := 1; i < len(sorted); i++ {
			for n := sorted[i-1] + 1; n < sorted[i]; n++ {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			gaps = append(gaps, SceneGap{Scene: scene, Actual: sorted, Missing: missing})
		}
	}
	return gaps
}

// ExpandSceneRange turns optional inclusive bounds into a scene list. A
// missing start defaults to 1 and a missing end to MaxScene. Bounds are
// clamped to [1, MaxScene].
func ExpandSceneRange(start, end *int) []int {
	lo, hi := 1, MaxScene
	if start != nil && *start > lo {
		lo = *start
	}
	if end != nil && *end < hi {
		hi = *end
	}
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
