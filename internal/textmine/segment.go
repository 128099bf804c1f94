package textmine

import (
	"regexp"
	"sort"
	"strings"
)

type SegmentType string

const (
	SegmentText    SegmentType = "text"
	SegmentHashtag SegmentType = "hashtag"
	SegmentKeyword SegmentType = "keyword"
)

type Segment struct {
	Value string      `json:"value"`
	Type  SegmentType `json:"type"`
}

// ParseSegment splits text into plain, hashtag and keyword runs so a caller
// can highlight them. Hashtags match with either marker and win over keywords
// at the same position. Keywords match case-insensitively and keep the
// casing found in text.
func ParseSegment(text string, keywords, hashtags []string) []Segment {
	if text == "" {
		return nil
	}

	pattern := segmentPattern(keywords, hashtags)
	if pattern == nil {
		return []Segment{{Value: text, Type: SegmentText}}
	}

	var segments []Segment
	last := 0
	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Value: text[last:loc[0]], Type: SegmentText})
		}
		// Without hashtags the pattern has no capture group.
		kind := SegmentKeyword
		if len(loc) > 2 && loc[2] >= 0 {
			kind = SegmentHashtag
		}
		segments = append(segments, Segment{Value: text[loc[0]:loc[1]], Type: kind})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Value: text[last:], Type: SegmentText})
	}
	return segments
}

func segmentPattern(keywords, hashtags []string) *regexp.Regexp {
	var alternatives []string
	if tags := quoteAlternation(hashtags); tags != "" {
		alternatives = append(alternatives, "([#＃](?:"+tags+"))")
	}
	if words := quoteAlternation(keywords); words != "" {
		alternatives = append(alternatives, "(?:"+words+")")
	}
	if len(alternatives) == 0 {
		return nil
	}
	return regexp.MustCompile("(?i)" + strings.Join(alternatives, "|"))
}

// quoteAlternation orders longer terms first so "abc" wins over "ab".
func quoteAlternation(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}
	sort.SliceStable(quoted, func(i, j int) bool {
		return len(quoted[i]) > len(quoted[j])
	})
	return strings.Join(quoted, "|")
}
