// Package newarrival tracks events that showed up since the previous refresh.
package newarrival

import (
	"sync"
	"time"

	"github.com/kapu/liver-streams-go/internal/constants"
	"github.com/kapu/liver-streams-go/internal/domain"
	"github.com/kapu/liver-streams-go/internal/filter"
)

type NewArrival struct {
	AddedTime time.Time          `json:"addedTime"`
	Event     *domain.LiverEvent `json:"event"`
}

type entry struct {
	id        string
	addedTime time.Time
}

// Tracker remembers ids that appeared in a refresh but not in the one
// before it. An id stays listed while both its discovery time and its start
// time are within keepTime.
type Tracker struct {
	keepTime time.Duration

	mu      sync.RWMutex
	entries []entry
	byID    map[string]*domain.LiverEvent
}

func NewTracker(keepTime time.Duration) *Tracker {
	if keepTime <= 0 {
		keepTime = constants.NewArrivalConfig.KeepTime
	}
	return &Tracker{
		keepTime: keepTime,
		byID:     map[string]*domain.LiverEvent{},
	}
}

// Update records the difference between current and previous. A nil previous
// marks the first load, which only stores byID.
func (t *Tracker) Update(current, previous []*domain.LiverEvent, byID map[string]*domain.LiverEvent, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byID = byID
	if previous == nil {
		return
	}

	prevIDs := make(map[string]struct{}, len(previous))
	for _, e := range previous {
		prevIDs[e.ID] = struct{}{}
	}
	known := make(map[string]struct{}, len(t.entries))
	for _, en := range t.entries {
		known[en.id] = struct{}{}
	}

	merged := append([]entry(nil), t.entries...)
	for _, e := range current {
		if _, ok := prevIDs[e.ID]; ok {
			continue
		}
		if _, ok := known[e.ID]; ok {
			continue
		}
		known[e.ID] = struct{}{}
		merged = append(merged, entry{id: e.ID, addedTime: now})
	}

	kept := merged[:0]
	for _, en := range merged {
		if now.Sub(en.addedTime) > t.keepTime {
			continue
		}
		ev, ok := byID[en.id]
		if !ok || now.Sub(ev.StartAt) > t.keepTime {
			continue
		}
		kept = append(kept, en)
	}
	t.entries = kept
}

// List returns current new arrivals, optionally narrowed by a talent set.
func (t *Tracker) List(talents filter.TalentSet) []NewArrival {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]NewArrival, 0, len(t.entries))
	for _, en := range t.entries {
		ev, ok := t.byID[en.id]
		if !ok || !filter.MatchesTalentSet(ev, talents) {
			continue
		}
		list = append(list, NewArrival{AddedTime: en.addedTime, Event: ev})
	}
	return list
}

// IDs returns the ids currently marked new.
func (t *Tracker) IDs() map[string]struct{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make(map[string]struct{}, len(t.entries))
	for _, en := range t.entries {
		ids[en.id] = struct{}{}
	}
	return ids
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
