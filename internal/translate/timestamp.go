package translate

import (
	"fmt"
	"strings"
	"time"
)

// TimeParser parses a single timestamp encoding
type TimeParser interface {
	Parse(value string) (time.Time, bool)
}

// zoneOffsets resolves the zone abbreviations written by legacy sources to
// their UTC offsets in seconds. time.Parse only knows the abbreviations of the
// local zone and reads every other one as UTC.
var zoneOffsets = map[string]int{
	"UTC":  0,
	"UT":   0,
	"GMT":  0,
	"Z":    0,
	"WET":  0,
	"WEST": 1 * 3600,
	"BST":  1 * 3600,
	"CET":  1 * 3600,
	"CEST": 2 * 3600,
	"EET":  2 * 3600,
	"EEST": 3 * 3600,
	"MSK":  3 * 3600,
	"JST":  9 * 3600,
	"AEST": 10 * 3600,
	"AEDT": 11 * 3600,
	"HST":  -10 * 3600,
	"AKST": -9 * 3600,
	"AKDT": -8 * 3600,
	"PST":  -8 * 3600,
	"PDT":  -7 * 3600,
	"MST":  -7 * 3600,
	"MDT":  -6 * 3600,
	"CST":  -6 * 3600,
	"CDT":  -5 * 3600,
	"EST":  -5 * 3600,
	"EDT":  -4 * 3600,
}

// layoutParser parses timestamps with a fixed time layout
type layoutParser string

// LayoutParser returns a TimeParser for a Go time layout. Zone abbreviations
// in the value are resolved to fixed offsets, independent of the local zone.
func LayoutParser(layout string) TimeParser {
	return layoutParser(layout)
}

func (l layoutParser) Parse(value string) (time.Time, bool) {
	t, err := time.Parse(string(l), value)
	if err != nil {
		return time.Time{}, false
	}
	if strings.Contains(string(l), "MST") {
		t = resolveZone(t)
	}
	return t, true
}

// resolveZone re-anchors a time parsed with a zone abbreviation. Known
// abbreviations get their table offset, GMT+hh forms keep the parsed offset,
// and anything else reads as UTC.
func resolveZone(t time.Time) time.Time {
	name, parsed := t.Zone()
	offset, ok := zoneOffsets[strings.ToUpper(name)]
	if !ok {
		offset = 0
		if strings.HasPrefix(name, "GMT") || strings.HasPrefix(name, "UTC") {
			offset = parsed
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, offset)).UTC()
}

// LegacyTimeParsers is the ordered chain of timestamp encodings found in legacy sources
var LegacyTimeParsers = []TimeParser{
	// Date string form, e.g. "Tue Mar 03 12:46:33 GMT 2015"
	layoutParser("Mon Jan 2 15:04:05 MST 2006"),
	// Medium locale form, e.g. "Mar 3, 2015 12:46:33 PM GMT"
	layoutParser("Jan 2, 2006 3:04:05 PM MST"),
	// GMT string form, e.g. "3 Mar 2015 12:46:33 GMT"
	layoutParser("2 Jan 2006 15:04:05 MST"),
	layoutParser(time.RFC3339Nano),
}

// ParseTime tries each parser of the chain in order and returns the first match
func ParseTime(value string, parsers ...TimeParser) (time.Time, error) {
	if len(parsers) == 0 {
		parsers = LegacyTimeParsers
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, p := range parsers {
		if t, ok := p.Parse(trimmed); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", value)
}
