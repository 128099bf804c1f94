package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/kapu/liver-streams-go/internal/util"
)

// LiverEvent is one scheduled or live stream. Events are built once by the
// normalizer and never mutated afterwards.
type LiverEvent struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	URL            string        `json:"url"`
	Thumbnail      string        `json:"thumbnail"`
	StartAt        time.Time     `json:"startAt"`
	EndAt          *time.Time    `json:"endAt,omitempty"`
	IsLive         bool          `json:"isLive"`
	Talent         LiverTalent   `json:"talent"`
	CollaboTalents []LiverTalent `json:"collaboTalents"`
	Affiliation    Affiliation   `json:"affiliation"`
	HashtagList    []string      `json:"hashtagList"`
	KeywordList    []string      `json:"keywordList"`

	HashtagSet       map[string]struct{} `json:"-"`
	CollaboTalentSet map[string]struct{} `json:"-"`
}

// BuildSets derives HashtagSet and CollaboTalentSet from the list fields.
func (e *LiverEvent) BuildSets() {
	e.HashtagSet = make(map[string]struct{}, len(e.HashtagList))
	for _, tag := range e.HashtagList {
		e.HashtagSet[util.Lower(tag)] = struct{}{}
	}
	e.CollaboTalentSet = make(map[string]struct{}, len(e.CollaboTalents))
	for _, talent := range e.CollaboTalents {
		e.CollaboTalentSet[talent.Name] = struct{}{}
	}
}

// HasHashtag expects an already lowercased tag.
func (e *LiverEvent) HasHashtag(lowerTag string) bool {
	if e == nil {
		return false
	}
	_, ok := e.HashtagSet[lowerTag]
	return ok
}

func (e *LiverEvent) HasCollaboTalent(name string) bool {
	if e == nil {
		return false
	}
	_, ok := e.CollaboTalentSet[name]
	return ok
}

// InvolvesTalent reports whether name is the main talent or a collaborator.
func (e *LiverEvent) InvolvesTalent(name string) bool {
	if e == nil {
		return false
	}
	return e.Talent.Name == name || e.HasCollaboTalent(name)
}

func (e *LiverEvent) UnmarshalJSON(data []byte) error {
	type alias LiverEvent
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = LiverEvent(raw)
	e.BuildSets()
	return nil
}

// CompareLiverEvent orders by start time, then affiliation, then talent name.
func CompareLiverEvent(a, b *LiverEvent) int {
	if c := a.StartAt.Compare(b.StartAt); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Affiliation), string(b.Affiliation)); c != 0 {
		return c
	}
	return strings.Compare(a.Talent.Name, b.Talent.Name)
}

// SortLiverEvents sorts in place; ties keep their input order.
func SortLiverEvents(events []*LiverEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return CompareLiverEvent(events[i], events[j]) < 0
	})
}

// IndexByID maps event id to event. Later duplicates win.
func IndexByID(events []*LiverEvent) map[string]*LiverEvent {
	byID := make(map[string]*LiverEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return byID
}
