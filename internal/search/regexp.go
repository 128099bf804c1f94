package search

import (
	"regexp"
	"strings"
)

// SearchRegexp is a compiled word filter: a list of alternatives, each of
// which requires every one of its terms to appear somewhere in the text,
// ignoring case.
type SearchRegexp struct {
	groups [][]*regexp.Regexp
	source string
}

func isOrSeparator(word string) bool {
	return word == "|" || strings.EqualFold(word, "or")
}

// CreateSearchRegexp compiles a word list. "or" (any case) and "|" split it
// into alternatives, and are always read as separators, never as search
// text. It returns nil when there is nothing to match on, which callers
// treat as no constraint.
func CreateSearchRegexp(words []string) *SearchRegexp {
	var (
		groups  [][]*regexp.Regexp
		sources []string
		current []*regexp.Regexp
		source  strings.Builder
	)

	closeGroup := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			sources = append(sources, source.String())
		}
		current = nil
		source.Reset()
	}

	for _, word := range words {
		if isOrSeparator(word) {
			closeGroup()
			continue
		}
		if word == "" {
			continue
		}
		quoted := regexp.QuoteMeta(word)
		current = append(current, regexp.MustCompile("(?i)"+quoted))
		source.WriteString("(?=.*" + quoted + ")")
	}
	closeGroup()

	if len(groups) == 0 {
		return nil
	}
	return &SearchRegexp{
		groups: groups,
		source: strings.Join(sources, "|"),
	}
}

// MatchString reports whether any alternative matches s. A nil SearchRegexp
// matches everything.
func (r *SearchRegexp) MatchString(s string) bool {
	if r == nil {
		return true
	}
	for _, group := range r.groups {
		if matchAll(group, s) {
			return true
		}
	}
	return false
}

func matchAll(group []*regexp.Regexp, s string) bool {
	for _, term := range group {
		if !term.MatchString(s) {
			return false
		}
	}
	return true
}

// String renders the equivalent lookahead pattern, e.g.
// (?=.*a)(?=.*b)|(?=.*c).
func (r *SearchRegexp) String() string {
	if r == nil {
		return ""
	}
	return r.source
}
