package mapping

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// MarshalJSON writes the artifact with a fixed key order and numerically
// sorted map keys.
func (a Artifact) MarshalJSON() ([]byte, error) {
	return a.render(false), nil
}

// MarshalIndent renders the artifact in its on-disk layout: two-space
// indentation with index arrays kept on one line.
func (a Artifact) MarshalIndent() []byte {
	return a.render(true)
}

type field struct {
	key   string
	value string
}

func (a Artifact) render(indent bool) []byte {
	sections := []struct {
		key     string
		entries []field
		scalar  string
	}{
		{key: "generatedAt", scalar: quote(a.GeneratedAt)},
		{key: "locale", scalar: quote(a.Locale)},
		{key: "sequenceName", scalar: quote(a.SequenceName)},
		{key: "totalClips", scalar: strconv.Itoa(a.TotalClips)},
		{key: "sourceToClips", entries: mapFields(a.SourceToClips, formatIndexList)},
		{key: "clipToSource", entries: mapFields(a.ClipToSource, strconv.Itoa)},
		{key: "clipDurations", entries: mapFields(a.ClipDurations, formatSeconds)},
		{key: "clipStartFramesPR", entries: mapFields(a.ClipStartFramesPR, strconv.Itoa)},
		{key: "clipStartFrames", entries: mapFields(a.ClipStartFrames, strconv.Itoa)},
	}

	var buf bytes.Buffer
	nl, pad1, pad2, sep := "", "", "", ":"
	if indent {
		nl, pad1, pad2, sep = "\n", "  ", "    ", ": "
	}
	buf.WriteString("{" + nl)
	for i, section := range sections {
		buf.WriteString(pad1 + quote(section.key) + sep)
		if section.entries == nil && section.scalar != "" {
			buf.WriteString(section.scalar)
		} else if len(section.entries) == 0 {
			buf.WriteString("{}")
		} else {
			buf.WriteString("{" + nl)
			for j, entry := range section.entries {
				buf.WriteString(pad2 + quote(entry.key) + sep + entry.value)
				if j < len(section.entries)-1 {
					buf.WriteByte(',')
				}
				buf.WriteString(nl)
			}
			buf.WriteString(pad1 + "}")
		}
		if i < len(sections)-1 {
			buf.WriteByte(',')
		}
		buf.WriteString(nl)
	}
	buf.WriteString("}" + nl)
	return buf.Bytes()
}

func mapFields[V any](m map[int]V, format func(V) string) []field {
	keys := sortedKeys(m)
	out := make([]field, 0, len(keys))
	for _, k := range keys {
		out = append(out, field{key: strconv.Itoa(k), value: format(m[k])})
	}
	return out
}

func formatIndexList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
