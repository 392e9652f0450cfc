// Package pattern compiles key templates with named placeholders, e.g.
// "user:{id}/posts:{postId}", into matchers that test a concrete key and
// extract the placeholder values.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrEmptyName     = errors.New("pattern: empty placeholder name")
	ErrDuplicateName = errors.New("pattern: duplicate placeholder name")
	ErrBraceInName   = errors.New("pattern: brace inside placeholder name")
)

// Pattern is a compiled key template. The zero value is not usable; use
// Compile.
type Pattern struct {
	raw   string
	re    *regexp.Regexp
	names []string
}

// Compile parses raw into a Pattern. A placeholder is "{name}" where name is
// non-empty, unique within the template, and contains no brace. An opening
// brace with no closing brace is treated as a literal. The compiled matcher is
// anchored to the whole key; placeholders capture non-greedily and may match
// the empty string.
func Compile(raw string) (*Pattern, error) {
	var (
		sb    strings.Builder
		names []string
		seen  = map[string]bool{}
	)
	sb.WriteString("^")

	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		end := strings.IndexByte(rest[open+1:], '}')
		if end < 0 {
			// Unterminated placeholder: the brace is literal.
			sb.WriteString(regexp.QuoteMeta(rest))
			break
		}
		name := rest[open+1 : open+1+end]
		if name == "" {
			return nil, fmt.Errorf("%w in %q", ErrEmptyName, raw)
		}
		if strings.ContainsAny(name, "{}") {
			return nil, fmt.Errorf("%w: %q in %q", ErrBraceInName, name, raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateName, name, raw)
		}
		seen[name] = true
		names = append(names, name)

		sb.WriteString(regexp.QuoteMeta(rest[:open]))
		sb.WriteString("(.*?)")
		rest = rest[open+1+end+1:]
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("pattern: compile %q: %w", raw, err)
	}
	return &Pattern{raw: raw, re: re, names: names}, nil
}

// String returns the original template.
func (p *Pattern) String() string { return p.raw }

// Names returns the placeholder names in order of appearance.
func (p *Pattern) Names() []string { return append([]string(nil), p.names...) }

// Match tests key against the template. On success it returns the extracted
// placeholder values keyed by name (nil map for templates with no
// placeholders).
func (p *Pattern) Match(key string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(key)
	if m == nil {
		return nil, false
	}
	if len(p.names) == 0 {
		return nil, true
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

// Match is the one-shot form: it compiles raw and tests key. Invalid templates
// simply do not match; Match never panics.
func Match(raw, key string) (map[string]string, bool) {
	p, err := Compile(raw)
	if err != nil {
		return nil, false
	}
	return p.Match(key)
}

// Validate reports whether raw is a well-formed template.
func Validate(raw string) bool {
	_, err := Compile(raw)
	return err == nil
}
