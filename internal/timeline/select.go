package timeline

import (
	"fmt"
	"sort"
	"strings"
)

// TrackKind identifies which track family a clip list came from.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Candidate is a sequence matching the requested name, with its path score.
type Candidate struct {
	Sequence          *Sequence
	Index             int
	MatchesSubproject bool
	MatchesLocale     bool
	Score             int
}

// Selection is the resolved sequence plus how it was found.
type Selection struct {
	Sequence *Sequence
	Index    int
	Method   string
	Fallback bool
}

// SequenceQuery drives sequence lookup. An empty Name selects by Index.
type SequenceQuery struct {
	Name       string
	Index      int
	Locale     string
	Subproject string
}

// SelectSequence locates the target sequence. Same-named sequences are ranked
// by whether their folder path contains the subproject and/or locale:
// 3 for both, 2 for subproject only, 1 for locale only (only when no
// subproject was requested). Without any match the first candidate is used and
// Fallback is set so callers can warn.
func SelectSequence(doc *Document, query SequenceQuery) (Selection, error) {
	if doc == nil || len(doc.Sequences) == 0 {
		return Selection{}, ErrNoSequences
	}

	name := strings.TrimSpace(query.Name)
	if name == "" {
		if query.Index < 0 || query.Index >= len(doc.Sequences) {
			return Selection{}, fmt.Errorf("sequence index %d out of range (%d sequences)", query.Index, len(doc.Sequences))
		}
		return Selection{Sequence: &doc.Sequences[query.Index], Index: query.Index, Method: "byIndex"}, nil
	}

	candidates := RankCandidates(doc, name, query.Locale, query.Subproject)
	if len(candidates) == 0 {
		available := make([]string, 0, len(doc.Sequences))
		for _, seq := range doc.Sequences {
			available = append(available, seq.Name)
		}
		return Selection{}, fmt.Errorf("sequence %q not found (available: %s)", name, strings.Join(available, ", "))
	}
	best := candidates[0]
	if best.Score > 0 {
		return Selection{Sequence: best.Sequence, Index: best.Index, Method: "byNameAndPath"}, nil
	}
	return Selection{Sequence: best.Sequence, Index: best.Index, Method: "byNameFallback", Fallback: true}, nil
}

// RankCandidates returns same-named sequences ordered by descending score.
// Ties keep document order.
func RankCandidates(doc *Document, name, locale, subproject string) []Candidate {
	var out []Candidate
	for i := range doc.Sequences {
		seq := &doc.Sequences[i]
		if seq.Name != name {
			continue
		}
		c := Candidate{Sequence: seq, Index: i}
		c.MatchesSubproject = subproject != "" && pathHasSegment(seq.TreePath, subproject)
		c.MatchesLocale = locale != "" && (pathHasSegment(seq.TreePath, locale) || pathEndsWith(seq.TreePath, locale))
		switch {
		case c.MatchesSubproject && c.MatchesLocale:
			c.Score = 3
		case c.MatchesSubproject:
			c.Score = 2
		case c.MatchesLocale && subproject == "":
			c.Score = 1
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func pathHasSegment(treePath, segment string) bool {
	return strings.Contains(treePath, "/"+segment+"/") || strings.Contains(treePath, `\`+segment+`\`)
}

func pathEndsWith(treePath, segment string) bool {
	return strings.HasSuffix(treePath, "/"+segment) || strings.HasSuffix(treePath, `\`+segment)
}

// TrackSelection is the populated track chosen for export.
type TrackSelection struct {
	Kind  TrackKind
	Index int
	Clips []Clip
}

// SelectTrack returns the first video track holding clips, falling back to
// the first populated audio track. ok is false when the sequence is empty.
func SelectTrack(seq *Sequence) (TrackSelection, bool) {
	if seq == nil {
		return TrackSelection{}, false
	}
	for i, track := range seq.VideoTracks {
		if len(track.Clips) > 0 {
			return TrackSelection{Kind: TrackVideo, Index: i, Clips: clipsFromTrack(track)}, true
		}
	}
	for i, track := range seq.AudioTracks {
		if len(track.Clips) > 0 {
			return TrackSelection{Kind: TrackAudio, Index: i, Clips: clipsFromTrack(track)}, true
		}
	}
	return TrackSelection{}, false
}

func clipsFromTrack(track Track) []Clip {
	clips := make([]Clip, 0, len(track.Clips))
	for i, item := range track.Clips {
		idx, ok := ExtractSourceIndex(item.SourceName)
		clips = append(clips, Clip{
			Index:          i + 1,
			Name:           item.Name,
			SourceName:     item.SourceName,
			SourceIndex:    idx,
			HasSourceIndex: ok,
			StartTicks:     int64(item.StartTicks),
			EndTicks:       int64(item.EndTicks),
		})
	}
	return clips
}
