package search

import (
	"slices"
	"sort"
	"strings"
)

// Option keys understood by the filter engine.
const (
	OptionStatus = "status"
	OptionTalent = "talent"

	StatusLive = "live"
)

// SearchQuery is the parsed form of a search box string. Values are never
// modified in place; the With/Without helpers return copies.
type SearchQuery struct {
	WordList    []string            `json:"wordList"`
	HashtagList []string            `json:"hashtagList"`
	Options     map[string][]string `json:"options"`
}

func newSearchQuery() *SearchQuery {
	return &SearchQuery{
		WordList:    []string{},
		HashtagList: []string{},
		Options:     map[string][]string{},
	}
}

func (q *SearchQuery) IsEmpty() bool {
	return q == nil || (len(q.WordList) == 0 && len(q.HashtagList) == 0 && len(q.Options) == 0)
}

func (q *SearchQuery) Option(key string) []string {
	if q == nil {
		return nil
	}
	return q.Options[key]
}

func (q *SearchQuery) IsLiveOnly() bool {
	return slices.Contains(q.Option(OptionStatus), StatusLive)
}

// FocusedTalents returns the talent: option values.
func (q *SearchQuery) FocusedTalents() []string {
	return q.Option(OptionTalent)
}

func (q *SearchQuery) Clone() *SearchQuery {
	c := newSearchQuery()
	if q == nil {
		return c
	}
	c.WordList = append(c.WordList, q.WordList...)
	c.HashtagList = append(c.HashtagList, q.HashtagList...)
	for k, v := range q.Options {
		c.Options[k] = append([]string(nil), v...)
	}
	return c
}

// WithOption returns a copy whose key holds exactly values. Empty values are
// dropped; if none remain the key is removed.
func (q *SearchQuery) WithOption(key string, values ...string) *SearchQuery {
	c := q.Clone()
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(c.Options, key)
		return c
	}
	c.Options[key] = kept
	return c
}

func (q *SearchQuery) WithoutOption(key string) *SearchQuery {
	c := q.Clone()
	delete(c.Options, key)
	return c
}

// ToggleLiveOnly adds status:live, or removes the status option when live-only
// is already set.
func (q *SearchQuery) ToggleLiveOnly() *SearchQuery {
	if q.IsLiveOnly() {
		return q.WithoutOption(OptionStatus)
	}
	return q.WithOption(OptionStatus, StatusLive)
}

// String serializes the query so that ParseSearchString returns an
// equivalent query: words, then options with keys in sorted order, then
// hashtags.
func (q *SearchQuery) String() string {
	if q == nil {
		return ""
	}

	parts := make([]string, 0, len(q.WordList)+len(q.HashtagList)+len(q.Options))
	for _, word := range q.WordList {
		if word == "" {
			continue
		}
		parts = append(parts, quoteWord(word))
	}

	keys := make([]string, 0, len(q.Options))
	for key := range q.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range q.Options[key] {
			if value == "" {
				continue
			}
			parts = append(parts, key+":"+quoteOptionValue(value))
		}
	}

	for _, tag := range q.HashtagList {
		if tag == "" {
			continue
		}
		parts = append(parts, "#"+tag)
	}

	return strings.Join(parts, " ")
}

// quoteWord quotes a word unless it already reads back as the same bare word.
func quoteWord(word string) string {
	s := newScanner(word)
	if tok, ok := s.next(); ok && tok.kind == tokenWord && tok.value == word {
		if _, more := s.next(); !more {
			return word
		}
	}
	return `"` + word + `"`
}

func quoteOptionValue(value string) string {
	if strings.HasPrefix(value, `"`) || strings.IndexFunc(value, isSpace) >= 0 {
		return `"` + value + `"`
	}
	return value
}
