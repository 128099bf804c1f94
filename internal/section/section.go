// Package section groups events into day and hour buckets for display.
package section

import (
	"time"

	"github.com/kapu/liver-streams-go/internal/domain"
)

const hoursPerDay = 24

type TimeSection struct {
	Time   time.Time            `json:"time"`
	Events []*domain.LiverEvent `json:"events"`
}

type DateSection struct {
	Time            time.Time     `json:"time"`
	TimeSectionList []TimeSection `json:"timeSectionList"`
}

// HasEvents reports whether any hour of the day holds an event.
func (d DateSection) HasEvents() bool {
	for _, ts := range d.TimeSectionList {
		if len(ts.Events) > 0 {
			return true
		}
	}
	return false
}

// CreateDateSectionList buckets events by the hour of StartAt in loc and
// returns one DateSection per local day that has events, each with exactly
// 24 hour sections. Events keep their input order inside a bucket.
func CreateDateSectionList(events []*domain.LiverEvent, loc *time.Location) []DateSection {
	if len(events) == 0 {
		return []DateSection{}
	}
	if loc == nil {
		loc = time.UTC
	}

	earliest, latest := events[0].StartAt, events[0].StartAt
	buckets := make(map[int64][]*domain.LiverEvent)
	for _, e := range events {
		if e.StartAt.Before(earliest) {
			earliest = e.StartAt
		}
		if e.StartAt.After(latest) {
			latest = e.StartAt
		}
		key := truncateHour(e.StartAt, loc).Unix()
		buckets[key] = append(buckets[key], e)
	}

	firstDay := midnight(earliest, loc)
	lastDayExclusive := midnight(latest, loc).AddDate(0, 0, 1)

	sections := make([]DateSection, 0)
	for day := firstDay; day.Before(lastDayExclusive); day = day.AddDate(0, 0, 1) {
		ds := DateSection{
			Time:            day,
			TimeSectionList: make([]TimeSection, 0, hoursPerDay),
		}
		for h := 0; h < hoursPerDay; h++ {
			hour := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, loc)
			bucket := buckets[hour.Unix()]
			if bucket == nil {
				bucket = []*domain.LiverEvent{}
			}
			ds.TimeSectionList = append(ds.TimeSectionList, TimeSection{Time: hour, Events: bucket})
		}
		if ds.HasEvents() {
			sections = append(sections, ds)
		}
	}
	return sections
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

func truncateHour(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}
