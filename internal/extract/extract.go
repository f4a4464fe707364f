// Package extract recovers structured frame dimensions from canonical
// text via an ordered cascade of pattern matchers.
//
// The inspection tool never commits to one dialect for describing a
// frame, so matching is heuristic by construction. Each pattern family
// is a Matcher; the cascade runs them in strict priority order and the
// first family that yields a complete pair wins. Partial matches are
// never merged across families.
package extract

import (
	"math"
	"regexp"
	"strconv"
)

// Dimensions holds an extracted frame size. Both values are positive.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Matcher is one pattern family in the extraction cascade.
type Matcher interface {
	// Name identifies the family in config and diagnostics.
	Name() string
	// Match reports a complete, positive dimension pair or a miss.
	Match(text string) (Dimensions, bool)
}

// Matcher names accepted in config.
const (
	MatcherLongform  = "longform"
	MatcherShortform = "shortform"
	MatcherCombined  = "combined"
)

var (
	numToken = `(\d+(?:\.\d+)?)`

	longWidth   = regexp.MustCompile(`(?i)\bwidth\s*[=:]\s*"?` + numToken)
	longHeight  = regexp.MustCompile(`(?i)\bheight\s*[=:]\s*"?` + numToken)
	shortWidth  = regexp.MustCompile(`(?i)\bw\s*[=:]\s*"?` + numToken)
	shortHeight = regexp.MustCompile(`(?i)\bh\s*[=:]\s*"?` + numToken)
	combined    = regexp.MustCompile(numToken + `\s*[x×]\s*` + numToken)
)

// pairMatcher matches width and height with independent patterns.
type pairMatcher struct {
	name   string
	width  *regexp.Regexp
	height *regexp.Regexp
}

func (m pairMatcher) Name() string { return m.name }

func (m pairMatcher) Match(text string) (Dimensions, bool) {
	wm := m.width.FindStringSubmatch(text)
	hm := m.height.FindStringSubmatch(text)
	if wm == nil || hm == nil {
		return Dimensions{}, false
	}
	return roundPair(wm[1], hm[1])
}

// tokenMatcher matches a single combined "WxH" token.
type tokenMatcher struct {
	name    string
	pattern *regexp.Regexp
}

func (m tokenMatcher) Name() string { return m.name }

func (m tokenMatcher) Match(text string) (Dimensions, bool) {
	match := m.pattern.FindStringSubmatch(text)
	if match == nil {
		return Dimensions{}, false
	}
	return roundPair(match[1], match[2])
}

// roundPair parses two decimal tokens and rounds half away from zero.
// A pair that does not round to positive integers is a miss.
func roundPair(ws, hs string) (Dimensions, bool) {
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil {
		return Dimensions{}, false
	}
	h, err := strconv.ParseFloat(hs, 64)
	if err != nil {
		return Dimensions{}, false
	}

	d := Dimensions{
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
	if d.Width <= 0 || d.Height <= 0 {
		return Dimensions{}, false
	}
	return d, true
}

// DefaultMatchers returns the built-in cascade in priority order:
// long-form attributes, single-letter attributes, combined WxH token.
func DefaultMatchers() []Matcher {
	return []Matcher{
		pairMatcher{name: MatcherLongform, width: longWidth, height: longHeight},
		pairMatcher{name: MatcherShortform, width: shortWidth, height: shortHeight},
		tokenMatcher{name: MatcherCombined, pattern: combined},
	}
}

// Named resolves configured matcher names to matchers, preserving the
// configured order. Unknown names are returned for the caller to warn
// about rather than failing the cascade.
func Named(names []string) (matchers []Matcher, unknown []string) {
	byName := make(map[string]Matcher)
	for _, m := range DefaultMatchers() {
		byName[m.Name()] = m
	}

	for _, name := range names {
		if m, ok := byName[name]; ok {
			matchers = append(matchers, m)
		} else {
			unknown = append(unknown, name)
		}
	}
	return matchers, unknown
}

// FromText runs the cascade over canonical text. It returns the first
// complete pair along with the winning family's name. A miss across
// every family reports ok == false; that is a soft outcome the caller
// logs as a warning, never an error.
func FromText(text string, matchers []Matcher) (Dimensions, string, bool) {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	for _, m := range matchers {
		if d, ok := m.Match(text); ok {
			return d, m.Name(), true
		}
	}
	return Dimensions{}, "", false
}
