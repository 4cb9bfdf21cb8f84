package timeline

import (
	"fmt"
	"regexp"
	"strconv"
)

var sourceIndexPattern = regexp.MustCompile(`^(\d+)`)

// Clip is one span on the selected track. Index is the 1-based position in
// the track and is immutable once read.
type Clip struct {
	Index          int
	Name           string
	SourceName     string
	SourceIndex    int
	HasSourceIndex bool
	StartTicks     int64
	EndTicks       int64
}

// Source returns the source material index and whether one could be derived.
func (c Clip) Source() (int, bool) {
	return c.SourceIndex, c.HasSourceIndex
}

// OutputName returns the file stem used for the clip's encoded output.
func (c Clip) OutputName(zeroPad bool, width int) string {
	return OutputName(c.Index, zeroPad, width)
}

// OutputName formats a 1-based clip index as an output file stem.
func OutputName(index int, zeroPad bool, width int) string {
	if !zeroPad || width <= 1 {
		return strconv.Itoa(index)
	}
	return fmt.Sprintf("%0*d", width, index)
}

// ExtractSourceIndex parses the leading digit run of an asset name.
// "48_error_handling.wav" yields 48.
func ExtractSourceIndex(sourceName string) (int, bool) {
	match := sourceIndexPattern.FindStringSubmatch(sourceName)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return value, true
}
