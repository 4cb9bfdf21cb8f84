// Package annotation parses the per-locale subtitle file that accompanies a
// clip timeline.
//
// Two independent grammars run over the same kind of text. ParseLines yields
// the content lines (one per clip, in order) together with their {GAP:n}
// directives. ParseSceneMarkers reads [scN] scene headers and [N] source-index
// markers and builds the scene table used by scene selection.
package annotation

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	gapDirective    = regexp.MustCompile(`^\{GAP:(\d+)\}\s*`)
	bracketedLine   = regexp.MustCompile(`^\[.*\]$`)
	fullWidthRemark = regexp.MustCompile(`【.*】`)
)

// Line is one content line of the annotation file. Line i aligns with clip i.
type Line struct {
	Text      string
	GapFrames int
	CustomGap bool
}

// ParseLines returns the content lines of text in file order. Blank lines,
// lines wholly enclosed in square brackets, and lines carrying a full-width
// 【…】 remark are skipped. A leading {GAP:n} sets the line's gap; other lines
// get defaultGap.
func ParseLines(text string, defaultGap int) []Line {
	var lines []Line
	for _, raw := range splitLines(text) {
		trimmed := strings.TrimSpace(raw)
		if skipLine(trimmed) {
			continue
		}
		lines = append(lines, parseGap(trimmed, defaultGap))
	}
	return lines
}

func skipLine(trimmed string) bool {
	return trimmed == "" || bracketedLine.MatchString(trimmed) || fullWidthRemark.MatchString(trimmed)
}

func parseGap(trimmed string, defaultGap int) Line {
	match := gapDirective.FindStringSubmatchIndex(trimmed)
	if match == nil {
		return Line{Text: trimmed, GapFrames: defaultGap}
	}
	frames, err := strconv.Atoi(trimmed[match[2]:match[3]])
	if err != nil {
		// Out of int range: treat as an ordinary line.
		return Line{Text: trimmed, GapFrames: defaultGap}
	}
	return Line{Text: trimmed[match[1]:], GapFrames: frames, CustomGap: true}
}

// GapAt returns the gap for the 0-based line position, or defaultGap when the
// annotation has fewer lines.
func GapAt(lines []Line, pos, defaultGap int) int {
	if pos < 0 || pos >= len(lines) {
		return defaultGap
	}
	return lines[pos].GapFrames
}

func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
