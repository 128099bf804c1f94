package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/kapu/liver-streams-go/internal/textmine"
)

// ParseSearchString tokenizes a search box string. It never fails: syntax it
// cannot read (an unterminated quote, a bare "#") ends up as plain words.
//
// Tokens, tried in order at each position:
//
//	"quoted phrase"          -> WordList
//	key:value, key:"a b"     -> Options[key] (repeated keys accumulate)
//	#tag, ＃tag              -> HashtagList, marker removed, case kept
//	anything else up to a space -> WordList
func ParseSearchString(input string) *SearchQuery {
	q := newSearchQuery()
	s := newScanner(input)
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokenWord:
			q.WordList = append(q.WordList, tok.value)
		case tokenOption:
			q.Options[tok.key] = append(q.Options[tok.key], tok.value)
		case tokenHashtag:
			q.HashtagList = append(q.HashtagList, tok.value)
		}
	}
	return q
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenOption
	tokenHashtag
)

type token struct {
	kind  tokenKind
	key   string
	value string
}

type scanner struct {
	src string
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func (s *scanner) next() (token, bool) {
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return token{}, false
		}
		rest := s.src[s.pos:]

		if phrase, n, ok := scanQuoted(rest); ok {
			s.pos += n
			if phrase == "" {
				continue
			}
			return token{kind: tokenWord, value: phrase}, true
		}
		if key, value, n, ok := scanOption(rest); ok {
			s.pos += n
			if value == "" {
				continue
			}
			return token{kind: tokenOption, key: key, value: value}, true
		}
		if tag, n, ok := scanHashtag(rest); ok {
			s.pos += n
			return token{kind: tokenHashtag, value: tag}, true
		}

		word := scanWord(rest)
		s.pos += len(word)
		return token{kind: tokenWord, value: word}, true
	}
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isSpace(r) {
			return
		}
		s.pos += size
	}
}

// scanQuoted reads `"..."` at the start of src and returns the content and
// the number of bytes consumed.
func scanQuoted(src string) (string, int, bool) {
	if !strings.HasPrefix(src, `"`) {
		return "", 0, false
	}
	end := strings.IndexByte(src[1:], '"')
	if end < 0 {
		return "", 0, false
	}
	return src[1 : 1+end], end + 2, true
}

// scanOption reads key:value or key:"value". The key is ASCII word
// characters only.
func scanOption(src string) (key, value string, n int, ok bool) {
	i := 0
	for i < len(src) && isWordByte(src[i]) {
		i++
	}
	if i == 0 || i >= len(src) || src[i] != ':' {
		return "", "", 0, false
	}
	key = src[:i]
	rest := src[i+1:]

	if phrase, m, quoted := scanQuoted(rest); quoted {
		return key, phrase, i + 1 + m, true
	}
	value = scanWord(rest)
	if value == "" {
		return "", "", 0, false
	}
	return key, value, i + 1 + len(value), true
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// scanHashtag reads a marker followed by at least one tag grapheme.
func scanHashtag(src string) (string, int, bool) {
	r, size := utf8.DecodeRuneInString(src)
	if r != textmine.HashMarker && r != textmine.FullwidthHashMarker {
		return "", 0, false
	}

	body := src[size:]
	end := 0
	gr := uniseg.NewGraphemes(body)
	for gr.Next() {
		cluster := gr.Str()
		if textmine.IsHashMarker(cluster) || !textmine.IsTagContinue(cluster) {
			break
		}
		_, end = gr.Positions()
	}
	if end == 0 {
		return "", 0, false
	}
	return body[:end], size + end, true
}

func scanWord(src string) string {
	if i := strings.IndexFunc(src, isSpace); i >= 0 {
		return src[:i]
	}
	return src
}
