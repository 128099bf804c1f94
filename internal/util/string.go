package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

// Lower applies full Unicode lowercasing. A Caser keeps state, so one is
// built per call.
func Lower(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}

// FoldWidth maps fullwidth ASCII variants to their narrow form ("ｈｏｌｏ" -> "holo").
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// ContainsFold reports whether substr occurs in s ignoring case and width.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(Lower(FoldWidth(s)), Lower(FoldWidth(substr)))
}

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// UniqueStrings drops exact duplicates, keeping first-seen order.
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
