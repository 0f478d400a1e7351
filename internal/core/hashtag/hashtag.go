// Package hashtag extracts normalized hashtag tokens from free text
//
// Tokens are normalized with NFKC, case folded, stripped of combining and
// format marks, and width folded, so "#Bitcoin", "#BITCOIN" and the fullwidth
// "＃ｂｉｔｃｏｉｎ" all yield "bitcoin"
package hashtag

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxLen bounds a single tag in runes; longer runs are treated as noise
const MaxLen = 64

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Normalize folds s into its canonical comparison form
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Extract returns the distinct normalized hashtags in text, in first seen order.
// A tag starts with '#' at the beginning of text or after whitespace or an opening
// bracket or quote and runs
// over letters, digits and underscores. Pure digit tags are ignored
func Extract(text string) []string {
	if !strings.ContainsAny(text, "#＃") {
		return nil
	}
	text = Normalize(text)

	var (
		out  []string
		seen map[string]struct{}
	)
	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		if rs[i] != '#' || (i > 0 && !boundary(rs[i-1])) {
			continue
		}
		j := i + 1
		for j < len(rs) && isWord(rs[j]) {
			j++
		}
		tag := string(rs[i+1 : j])
		if valid(tag) {
			if seen == nil {
				seen = map[string]struct{}{}
			}
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
		}
		i = j - 1
	}
	return out
}

// boundary runes may precede a tag
func boundary(r rune) bool { return unicode.IsSpace(r) || strings.ContainsRune("([{\"'", r) }

func isWord(r rune) bool { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func valid(tag string) bool {
	n := 0
	letters := false
	for _, r := range tag {
		n++
		if !unicode.IsDigit(r) {
			letters = true
		}
	}
	return n > 0 && n <= MaxLen && letters
}
