// Package filter narrows an event list by talent selection and a parsed
// search query.
package filter

import (
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/search"
	"github.com/kapu/liver-streams-go/internal/util"
)

// TalentSet is a set of talent names. Empty means unfiltered.
type TalentSet map[string]struct{}

func NewTalentSet(names ...string) TalentSet {
	set := make(TalentSet, len(names))
	for _, name := range names {
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func (s TalentSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in no particular order.
func (s TalentSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

// MatchesTalentSet reports whether the event's talent or a collaborator is in
// set. An empty set matches every event.
func MatchesTalentSet(event *domain.LiverEvent, set TalentSet) bool {
	if len(set) == 0 {
		return true
	}
	if set.Has(event.Talent.Name) {
		return true
	}
	for _, collabo := range event.CollaboTalents {
		if set.Has(collabo.Name) {
			return true
		}
	}
	return false
}

// GetFilteredEventList applies, in order: status:live, talent selection (the
// talent: option replaces talentFilter when present), hashtag containment, and
// the compiled word pattern. Inputs are not modified.
func GetFilteredEventList(events []*domain.LiverEvent, talentFilter TalentSet, query *search.SearchQuery) []*domain.LiverEvent {
	result := make([]*domain.LiverEvent, 0, len(events))
	result = append(result, events...)

	if query.IsLiveOnly() {
		result = keep(result, func(e *domain.LiverEvent) bool {
			return e.IsLive
		})
	}

	selection := talentFilter
	if focused := query.FocusedTalents(); len(focused) > 0 {
		selection = NewTalentSet(focused...)
	}
	if len(selection) > 0 {
		result = keep(result, func(e *domain.LiverEvent) bool {
			return MatchesTalentSet(e, selection)
		})
	}

	if query != nil && len(query.HashtagList) > 0 {
		tags := make([]string, 0, len(query.HashtagList))
		for _, tag := range query.HashtagList {
			tags = append(tags, util.Lower(tag))
		}
		result = keep(result, func(e *domain.LiverEvent) bool {
			for _, tag := range tags {
				if !e.HasHashtag(tag) {
					return false
				}
			}
			return true
		})
	}

	if query != nil {
		if pattern := search.CreateSearchRegexp(query.WordList); pattern != nil {
			result = keep(result, func(e *domain.LiverEvent) bool {
				return matchesText(e, pattern)
			})
		}
	}

	return result
}

func matchesText(e *domain.LiverEvent, pattern *search.SearchRegexp) bool {
	if pattern.MatchString(e.Title) || pattern.MatchString(e.Talent.Name) {
		return true
	}
	for _, collabo := range e.CollaboTalents {
		if pattern.MatchString(collabo.Name) {
			return true
		}
	}
	return false
}

// keep filters in place; events is always a private copy here.
func keep(events []*domain.LiverEvent, pred func(*domain.LiverEvent) bool) []*domain.LiverEvent {
	n := 0
	for _, e := range events {
		if pred(e) {
			events[n] = e
			n++
		}
	}
	clear(events[n:])
	return events[:n]
}
