package textmine

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/kapu/liver-streams-go/internal/util"
)

const minHashtagGraphemes = 3

// ExtractHashtags returns the hashtags in title without their marker, in
// first-seen order. Tags run until the first grapheme outside the tag class
// or the next marker, so "#ab#cde" yields two candidates.
func ExtractHashtags(title string) []string {
	var (
		tags   []string
		buf    strings.Builder
		count  int
		inside bool
	)

	flush := func() {
		if inside && count >= minHashtagGraphemes {
			tags = append(tags, buf.String())
		}
		buf.Reset()
		count = 0
		inside = false
	}

	gr := uniseg.NewGraphemes(title)
	for gr.Next() {
		cluster := gr.Str()
		isHash := IsHashMarker(cluster)

		if isHash || !IsTagContinue(cluster) {
			flush()
		}
		if isHash {
			inside = true
			continue
		}
		if inside {
			buf.WriteString(cluster)
			count++
		}
	}
	flush()

	return util.UniqueStrings(tags)
}
