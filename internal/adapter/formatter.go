// Package adapter renders schedules as plain text for terminals and chat.
package adapter

import (
	"fmt"
	"strings"
	"time"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/section"
	"github.com/kapu/liver-streams-go/internal/service/bookmark"
	"github.com/kapu/liver-streams-go/internal/service/newarrival"
	"github.com/kapu/liver-streams-go/internal/util"
)

const (
	markerLive     = "🔴"
	markerUpcoming = "⏰"
)

type eventView struct {
	Marker   string
	Time     string
	Talent   string
	Collabos string
	Title    string
	URL      string
}

type dateView struct {
	Label  string
	Events []eventView
}

// ScheduleFormatter formats events in a fixed time zone.
type ScheduleFormatter struct {
	loc *time.Location
}

func NewScheduleFormatter(loc *time.Location) *ScheduleFormatter {
	if loc == nil {
		loc = util.JST()
	}
	return &ScheduleFormatter{loc: loc}
}

// FormatSections lists each day's events under a date header.
func (f *ScheduleFormatter) FormatSections(sections []section.DateSection) (string, error) {
	days := make([]dateView, 0, len(sections))
	for _, ds := range sections {
		view := dateView{Label: util.FormatIn(ds.Time, f.loc, "01/02 (Mon)")}
		for _, ts := range ds.TimeSectionList {
			for _, ev := range ts.Events {
				view.Events = append(view.Events, f.event(ev, "15:04"))
			}
		}
		if len(view.Events) > 0 {
			days = append(days, view)
		}
	}

	if len(days) == 0 {
		return "📅 No scheduled streams.", nil
	}
	return executeFormatterTemplate("sections", days)
}

func (f *ScheduleFormatter) FormatNewArrivals(list []newarrival.NewArrival) (string, error) {
	if len(list) == 0 {
		return "🆕 No new arrivals.", nil
	}
	views := make([]eventView, 0, len(list))
	for _, na := range list {
		views = append(views, f.event(na.Event, "01/02 15:04"))
	}
	return executeFormatterTemplate("arrivals", views)
}

func (f *ScheduleFormatter) FormatNotification(n bookmark.Notification) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 %s\n", n.Heading))
	sb.WriteString(fmt.Sprintf("   %s\n", f.truncateTitle(n.Body)))
	sb.WriteString(fmt.Sprintf("   %s", n.URL))
	return sb.String()
}

func (f *ScheduleFormatter) event(ev *domain.LiverEvent, layout string) eventView {
	marker := markerUpcoming
	if ev.IsLive {
		marker = markerLive
	}

	names := make([]string, 0, len(ev.CollaboTalents))
	for _, t := range ev.CollaboTalents {
		names = append(names, t.Name)
	}

	return eventView{
		Marker:   marker,
		Time:     util.FormatIn(ev.StartAt, f.loc, layout),
		Talent:   ev.Talent.Name,
		Collabos: strings.Join(names, ", "),
		Title:    f.truncateTitle(ev.Title),
		URL:      ev.URL,
	}
}

func (f *ScheduleFormatter) truncateTitle(title string) string {
	return util.TruncateString(title, constants.StringLimits.EventTitle)
}
