package util

import (
	"fmt"
	"strings"
	"time"
)

var jstLocation *time.Location

func init() {
	var err error
	jstLocation, err = time.LoadLocation("Asia/Tokyo")
	if err != nil {
		jstLocation = time.FixedZone("JST", 9*60*60)
	}
}

// JST returns the Asia/Tokyo location, the zone both agencies publish in.
func JST() *time.Location {
	return jstLocation
}

// LoadLocation resolves an IANA name, falling back to JST when tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return jstLocation
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return jstLocation
	}
	return loc
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
}

// ParseTimestamp accepts the timestamp shapes the schedule sources emit.
// Layouts without an offset are read in JST.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i < 2 {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, jstLocation)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func FormatIn(t time.Time, loc *time.Location, layout string) string {
	if loc == nil {
		loc = jstLocation
	}
	return t.In(loc).Format(layout)
}
