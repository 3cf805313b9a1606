// Package textnorm cleans raw comment text before it is projected into
// feature space. The same function is used when a vocabulary is fitted and
// when comments are scored.
package textnorm

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// URLPlaceholder replaces every URL-like token.
const URLPlaceholder = "<URL>"

// \s and \S are Unicode-aware in regexp2, so a URL ends at U+3000 or a
// no-break space as well as at ASCII whitespace.
var (
	newlines = regexp2.MustCompile(`\n+`, regexp2.None)
	urls     = regexp2.MustCompile(`http\S+|www\.\S+`, regexp2.None)
)

// Normalize folds line breaks into single spaces, replaces URLs with
// URLPlaceholder and trims the result.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r", "\n")
	s = replace(newlines, s, " ")
	s = replace(urls, s, URLPlaceholder)
	return strings.TrimSpace(s)
}

// replace substitutes every match of re. The patterns have no match timeout,
// so an error leaves s unchanged.
func replace(re *regexp2.Regexp, s, repl string) string {
	out, err := re.Replace(s, repl, -1, -1)
	if err != nil {
		return s
	}
	return out
}

// NormalizeValue is Normalize for loosely typed input. Anything that is not a
// string yields "".
func NormalizeValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return Normalize(s)
	case *string:
		if s == nil {
			return ""
		}
		return Normalize(*s)
	default:
		return ""
	}
}

// NormalizeAll normalizes texts into a new slice of the same length.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
