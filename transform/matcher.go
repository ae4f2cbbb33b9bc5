package transform

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

type matchKind int

const (
	matchNone matchKind = iota
	matchSubstring
	matchPattern
)

// Matcher tests selectors, property names and source paths. It is either a
// plain substring or a JavaScript-flavoured regular expression. Zero value
// matches nothing and is rejected by New when used as blacklist entry.
type Matcher struct {
	kind matchKind
	text string
	re   *regexp2.Regexp
}

// Substring returns matcher testing for substring containment.
func Substring(s string) Matcher {
	return Matcher{kind: matchSubstring, text: s}
}

// Pattern compiles expr with JavaScript flags (only "g", "i" and "m" are
// recognized, "g" has no effect on matching).
func Pattern(expr, flags string) (Matcher, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'g':
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		default:
			return Matcher{}, fmt.Errorf("unsupported regular expression flag %q in /%s/%s", f, expr, flags)
		}
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return Matcher{}, fmt.Errorf("bad regular expression /%s/%s: %w", expr, flags, err)
	}
	return Matcher{kind: matchPattern, text: "/" + expr + "/" + flags, re: re}, nil
}

// ParseEntry interprets blacklist entry: "/expr/flags" is a pattern, anything
// else is a substring.
func ParseEntry(s string) (Matcher, error) {
	if expr, flags, ok := splitLiteral(s); ok {
		return Pattern(expr, flags)
	}
	return Substring(s), nil
}

// ParsePattern interprets include option. Unlike blacklist entries a plain
// string is a pattern too, "/expr/flags" form allows to specify flags.
func ParsePattern(s string) (Matcher, error) {
	if expr, flags, ok := splitLiteral(s); ok {
		return Pattern(expr, flags)
	}
	return Pattern(s, "")
}

// splitLiteral recognizes regular expression literal /expr/flags.
func splitLiteral(s string) (expr, flags string, ok bool) {
	if len(s) < 2 || s[0] != '/' {
		return "", "", false
	}
	end := strings.LastIndexByte(s, '/')
	if end == 0 {
		return "", "", false
	}
	flags = s[end+1:]
	if strings.Trim(flags, "gimsuyd") != "" {
		return "", "", false
	}
	return s[1:end], flags, true
}

// IsZero reports whether matcher was never set.
func (m Matcher) IsZero() bool {
	return m.kind == matchNone
}

// Match reports whether s matches. Regular expression engine errors (match
// timeouts) are treated as no match.
func (m Matcher) Match(s string) bool {
	switch m.kind {
	case matchSubstring:
		return strings.Contains(s, m.text)
	case matchPattern:
		ok, err := m.re.MatchString(s)
		return err == nil && ok
	default:
		return false
	}
}

func (m Matcher) String() string {
	return m.text
}

func matchAny(list []Matcher, s string) bool {
	for _, m := range list {
		if m.Match(s) {
			return true
		}
	}
	return false
}
