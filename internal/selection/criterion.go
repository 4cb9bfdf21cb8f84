package selection

import (
	"fmt"
	"strconv"
	"strings"

	"clipexport/internal/timeline"
)

// Kind names the active selection criterion.
type Kind string

const (
	KindAll           Kind = "all"
	KindSourceIndices Kind = "indices"
	KindSourceRange   Kind = "range"
	KindScenes        Kind = "scenes"
)

// Criteria is the configured selection before precedence is applied.
type Criteria struct {
	Scenes        []int
	SceneStart    *int
	SceneEnd      *int
	SourceIndices []int
	SourceStart   *int
	SourceEnd     *int
}

// HasScenes reports whether scene selection is configured.
func (c Criteria) HasScenes() bool {
	return len(c.Scenes) > 0 || c.SceneStart != nil || c.SceneEnd != nil
}

// Criterion is the single selection rule in force for a run.
type Criterion struct {
	Kind    Kind
	Indices []int
	Start   *int
	End     *int
	// Scenes is set for KindScenes and lists the requested scene numbers.
	Scenes []int

	set map[int]struct{}
}

// SourceCriterion applies source-mode precedence: a non-empty index list,
// then a range, then all.
func SourceCriterion(c Criteria) Criterion {
	switch {
	case len(c.SourceIndices) > 0:
		return IndexCriterion(c.SourceIndices)
	case c.SourceStart != nil || c.SourceEnd != nil:
		return Criterion{Kind: KindSourceRange, Start: c.SourceStart, End: c.SourceEnd}
	default:
		return Criterion{Kind: KindAll}
	}
}

// IndexCriterion builds a discrete source-index criterion.
func IndexCriterion(indices []int) Criterion {
	return newIndexCriterion(KindSourceIndices, indices)
}

func sceneCriterion(scenes, indices []int) Criterion {
	c := newIndexCriterion(KindScenes, indices)
	c.Scenes = append([]int(nil), scenes...)
	return c
}

func newIndexCriterion(kind Kind, indices []int) Criterion {
	set := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		set[idx] = struct{}{}
	}
	return Criterion{Kind: kind, Indices: append([]int(nil), indices...), set: set}
}

// Includes reports whether clip is selected. Clips without a source index are
// always included.
func (c Criterion) Includes(clip timeline.Clip) bool {
	idx, ok := clip.Source()
	if !ok {
		return true
	}
	switch c.Kind {
	case KindSourceIndices, KindScenes:
		if c.set == nil {
			for _, v := range c.Indices {
				if v == idx {
					return true
				}
			}
			return false
		}
		_, hit := c.set[idx]
		return hit
	case KindSourceRange:
		start := 1
		if c.Start != nil {
			start = *c.Start
		}
		if idx < start {
			return false
		}
		return c.End == nil || idx <= *c.End
	default:
		return true
	}
}

// Full reports whether the criterion selects everything, which switches
// cleanup to full mode.
func (c Criterion) Full() bool {
	return c.Kind == KindAll || c.Kind == ""
}

// Describe returns a short human-readable form of the criterion.
func (c Criterion) Describe() string {
	switch c.Kind {
	case KindSourceIndices:
		return "source indices " + FormatInts(c.Indices)
	case KindSourceRange:
		start, end := "1", "end"
		if c.Start != nil {
			start = strconv.Itoa(*c.Start)
		}
		if c.End != nil {
			end = strconv.Itoa(*c.End)
		}
		return fmt.Sprintf("source range %s-%s", start, end)
	case KindScenes:
		return fmt.Sprintf("scenes %s -> source indices %s", FormatInts(c.Scenes), FormatInts(c.Indices))
	default:
		return "all clips"
	}
}

// FormatInts renders values as "[1, 2, 3]".
func FormatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
