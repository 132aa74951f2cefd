// Package prompt parses the optional language prefix of a launcher query.
//
// A query may start with a short directive followed by whitespace:
//
//	en>zh hello   source and target
//	en> hello     source only
//	zh hello      target only
//	>zh hello     target only
//
// Anything else is treated as plain text and the previous language pair
// is kept.
package prompt

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/minios-linux/flowtrans/langmeta"
)

// maxPrefixLen is the largest index of the first whitespace for which the
// leading token is still considered a language directive.
const maxPrefixLen = 15

var (
	bothPattern   = regexp.MustCompile(`^([a-z_]+)>([a-z_]+)$`)
	sourcePattern = regexp.MustCompile(`^([a-z_]+)>$`)
	targetPattern = regexp.MustCompile(`^>?([a-z_]+)$`)
	pairPattern   = regexp.MustCompile(`^\s*([a-z_]+)\s*>\s*([a-z_]+)\s*$`)
)

// Parse splits prompt into a source code, a target code and the text to
// translate. oldSource and oldTarget are returned for the parts the prefix
// does not set. Parse never fails: when no prefix form matches it returns
// (oldSource, oldTarget, prompt).
func Parse(prompt, oldSource, oldTarget string) (source, target, text string) {
	runes := []rune(prompt)
	idx := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			idx = i
			break
		}
	}
	if idx > maxPrefixLen {
		return oldSource, oldTarget, prompt
	}

	prefix, rest := prompt, ""
	if idx >= 0 {
		prefix = string(runes[:idx])
		rest = strings.TrimSpace(string(runes[idx+1:]))
	}

	if m := bothPattern.FindStringSubmatch(prefix); m != nil && langmeta.IsValid(m[1]) && langmeta.IsValid(m[2]) {
		return m[1], m[2], rest
	}
	if m := sourcePattern.FindStringSubmatch(prefix); m != nil && langmeta.IsValid(m[1]) {
		return m[1], oldTarget, rest
	}
	if m := targetPattern.FindStringSubmatch(prefix); m != nil && langmeta.IsValid(m[1]) {
		return oldSource, m[1], rest
	}
	return oldSource, oldTarget, prompt
}

// Pair is an ordered source/target language pair.
type Pair struct {
	Source string
	Target string
}

// String returns the prefix form of the pair, e.g. "en>zh".
func (p Pair) String() string {
	return p.Source + ">" + p.Target
}

// ParsePair parses "source>target" with optional whitespace around '>'.
// The second result is false when the syntax is wrong or either code is
// not valid.
func ParsePair(s string) (Pair, bool) {
	m := pairPattern.FindStringSubmatch(s)
	if m == nil {
		return Pair{}, false
	}
	if !langmeta.IsValid(m[1]) || !langmeta.IsValid(m[2]) {
		return Pair{}, false
	}
	return Pair{Source: m[1], Target: m[2]}, true
}
