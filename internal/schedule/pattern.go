package schedule

import (
	"fmt"
	"strings"
)

// Appointment durations travel as a compact pattern string: a slash on
// each end surrounding one X per 5-minute block, e.g. /XXXXXX/ = 30 min.
const (
	patternDelimiter = "/"
	patternMarker    = 'X'

	// MinutesPerMarker is the duration represented by a single X.
	MinutesPerMarker = 5
)

// EncodePattern renders durationMinutes as a pattern string.
// Durations are rounded up to the next 5-minute block; zero or negative
// durations encode as a single block.
func EncodePattern(durationMinutes int) string {
	blocks := (durationMinutes + MinutesPerMarker - 1) / MinutesPerMarker
	if blocks < 1 {
		blocks = 1
	}
	return patternDelimiter + strings.Repeat(string(patternMarker), blocks) + patternDelimiter
}

// DecodePattern counts markers and returns the duration in minutes.
func DecodePattern(pattern string) (int, error) {
	body, ok := strings.CutPrefix(pattern, patternDelimiter)
	if !ok {
		return 0, fmt.Errorf("pattern %q: missing leading delimiter", pattern)
	}
	body, ok = strings.CutSuffix(body, patternDelimiter)
	if !ok {
		return 0, fmt.Errorf("pattern %q: missing trailing delimiter", pattern)
	}
	if body == "" {
		return 0, fmt.Errorf("pattern %q: no duration markers", pattern)
	}
	for _, r := range body {
		if r != patternMarker {
			return 0, fmt.Errorf("pattern %q: unexpected character %q", pattern, r)
		}
	}
	return len(body) * MinutesPerMarker, nil
}
