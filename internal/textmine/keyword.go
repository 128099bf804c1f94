package textmine

import (
	"strings"

	"github.com/kapu/liver-streams-go/internal/util"
)

const minKeywordGraphemes = 2

// bracketPairs holds opening and closing glyphs at the same index.
// Parentheses are left out on purpose.
var bracketPairs = [][2]rune{
	{'[', ']'},
	{'{', '}'},
	{'［', '］'},
	{'【', '】'},
	{'｛', '｝'},
	{'〔', '〕'},
	{'〈', '〉'},
	{'《', '》'},
	{'「', '」'},
	{'『', '』'},
	{'〘', '〙'},
	{'〚', '〛'},
}

var (
	openingBrackets = map[rune]struct{}{}
	closingBrackets = map[rune]struct{}{}
)

func init() {
	for _, pair := range bracketPairs {
		openingBrackets[pair[0]] = struct{}{}
		closingBrackets[pair[1]] = struct{}{}
	}
}

// Agency names never count as content keywords.
var keywordBlocklist = []string{
	"nijisanji",
	"にじさんじ",
	"hololive",
	"ホロライブ",
}

// ExtractKeywords returns lowercased phrases enclosed in brackets, skipping
// agency branding and excludeName (usually the event's own talent).
func ExtractKeywords(title, excludeName string) []string {
	var keywords []string
	for _, span := range bracketSpans(title) {
		keyword := cleanKeyword(span)
		if GraphemeLen(keyword) < minKeywordGraphemes {
			continue
		}
		if isBlockedKeyword(keyword, excludeName) {
			continue
		}
		keywords = append(keywords, keyword)
	}
	return util.UniqueStrings(keywords)
}

// bracketSpans pairs each opening bracket with the nearest closing bracket of
// any family. A span never crosses a line break; an unclosed bracket is skipped.
func bracketSpans(text string) []string {
	runes := []rune(text)
	var spans []string

	for i := 0; i < len(runes); i++ {
		if _, ok := openingBrackets[runes[i]]; !ok {
			continue
		}
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '\n' || runes[j] == '\r' {
				break
			}
			if _, ok := closingBrackets[runes[j]]; ok {
				spans = append(spans, string(runes[i+1:j]))
				i = j
				break
			}
		}
	}
	return spans
}

// cleanKeyword drops a trailing "#12" style numbering, then trims and lowercases.
func cleanKeyword(span string) string {
	if idx := strings.IndexAny(span, "#＃"); idx >= 0 {
		span = span[:idx]
	}
	return util.Lower(strings.TrimSpace(span))
}

func isBlockedKeyword(keyword, excludeName string) bool {
	for _, blocked := range keywordBlocklist {
		if util.ContainsFold(keyword, blocked) {
			return true
		}
	}
	return excludeName != "" && util.ContainsFold(keyword, excludeName)
}
