// Package parser translates free-form natural-language instructions into
// structured actions. It is a deterministic, rule-based matcher: an ordered
// table of (trigger patterns, builder) pairs evaluated first-match-wins.
// More specific phrasings ("switch to tab 3") are ordered before catch-alls
// ("go to ..."), and identical input always produces a structurally identical
// result. It is a best-effort heuristic, not a grammar.
package parser

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/surf/pkg/action"
)

// ParseError reports input the parser could not turn into an action. Missing
// is set when a phrasing was recognized but a required argument was absent.
type ParseError struct {
	Text    string
	Missing string
}

func (e *ParseError) Error() string {
	if e.Missing != "" {
		return fmt.Sprintf("could not parse %q: missing %s", e.Text, e.Missing)
	}
	return fmt.Sprintf("could not understand %q", e.Text)
}

// rule pairs one or more trigger patterns with a builder that extracts
// arguments from the matched segment. Patterns are matched against the
// lowercased input; builders receive the original segment so selectors,
// URLs, and fill text keep their casing.
type rule struct {
	verb     action.Verb
	patterns []glob.Glob
	build    func(segment string) ([]action.Action, error)
}

func (r rule) matches(lowered string) bool {
	for _, p := range r.patterns {
		if p.Match(lowered) {
			return true
		}
	}
	return false
}

// Parser holds the ordered rule table. The zero value is not usable; call
// New.
type Parser struct {
	rules []rule
}

// New returns a parser with the built-in rule set.
func New() *Parser {
	return &Parser{rules: builtinRules()}
}

// Parse translates text into an ordered action sequence. Compound
// instructions ("open a new tab and go to example.com") yield multiple
// actions. The returned error is always a *ParseError; no input causes a
// panic.
func (p *Parser) Parse(text string) ([]action.Action, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &ParseError{Text: text}
	}

	var actions []action.Action
	for _, segment := range splitSegments(trimmed) {
		acts, err := p.parseOne(segment)
		if err != nil {
			return nil, err
		}
		actions = append(actions, acts...)
	}
	return actions, nil
}

func (p *Parser) parseOne(segment string) ([]action.Action, error) {
	lowered := strings.ToLower(segment)
	for _, r := range p.rules {
		if r.matches(lowered) {
			return r.build(segment)
		}
	}
	return nil, &ParseError{Text: segment}
}

// connectorWords lead segments that continue a compound instruction. A
// conjunction only splits the input when the following word is one of these,
// so "fill the box with cats and dogs" stays whole while "open a new tab and
// go to example.com" splits.
var connectorWords = map[string]bool{
	"go": true, "open": true, "navigate": true, "visit": true, "load": true,
	"click": true, "press": true, "tap": true,
	"fill": true, "type": true, "enter": true, "search": true,
	"take": true, "capture": true, "grab": true,
	"switch": true, "close": true, "list": true,
	"wait": true, "scroll": true, "run": true, "execute": true,
	"get": true, "read": true, "quit": true, "stop": true,
}

var conjunctions = []string{" and then ", ", then ", " then ", " and "}

// splitSegments breaks a compound instruction at conjunctions that sit
// outside quotes and are followed by a recognized command word.
func splitSegments(text string) []string {
	var segments []string
	rest := text
	for {
		idx, conjLen := nextSplit(rest)
		if idx < 0 {
			break
		}
		head := strings.TrimSpace(rest[:idx])
		if head != "" {
			segments = append(segments, head)
		}
		rest = strings.TrimSpace(rest[idx+conjLen:])
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	if len(segments) == 0 {
		segments = []string{text}
	}
	return segments
}

func nextSplit(text string) (idx, conjLen int) {
	lowered := strings.ToLower(text)
	for i := 0; i < len(lowered); i++ {
		if inQuotes(lowered[:i]) {
			continue
		}
		for _, conj := range conjunctions {
			if !strings.HasPrefix(lowered[i:], conj) {
				continue
			}
			after := lowered[i+len(conj):]
			first, _, _ := strings.Cut(strings.TrimSpace(after), " ")
			if connectorWords[first] {
				return i, len(conj)
			}
		}
	}
	return -1, 0
}

// inQuotes reports whether the end of prefix falls inside an unclosed
// single- or double-quoted span.
func inQuotes(prefix string) bool {
	var single, double bool
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '\'':
			if !double {
				single = !single
			}
		case '"':
			if !single {
				double = !double
			}
		}
	}
	return single || double
}

func mustGlobs(patterns ...string) []glob.Glob {
	globs := make([]glob.Glob, len(patterns))
	for i, p := range patterns {
		globs[i] = glob.MustCompile(p)
	}
	return globs
}

func single(a action.Action) []action.Action {
	return []action.Action{a}
}
