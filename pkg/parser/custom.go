package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/surf/pkg/action"
)

// CustomRule is one user-defined phrasing loaded from a YAML rules file.
// Custom rules are tried before the built-in table so a user phrasing can
// override a built-in one, and they stay deterministic: file order is
// evaluation order.
type CustomRule struct {
	// Verb names the action to build. Must be one of the known verbs.
	Verb string `yaml:"verb"`

	// Patterns are glob trigger phrasings matched against the lowercased
	// instruction, e.g. "beam me to *".
	Patterns []string `yaml:"patterns"`

	// Arg names how the argument is extracted from the matched text:
	// "url", "selector", "text", "number", or "none" (default).
	Arg string `yaml:"arg"`
}

type rulesFile struct {
	Rules []CustomRule `yaml:"rules"`
}

var knownVerbs = map[action.Verb]bool{
	action.Navigate: true, action.Click: true, action.Fill: true,
	action.Screenshot: true, action.ExecuteScript: true, action.Scroll: true,
	action.GetContent: true, action.GetTitle: true, action.GetText: true,
	action.WaitFor: true, action.OpenTab: true, action.SwitchTab: true,
	action.CloseTab: true, action.ListTabs: true, action.CurrentTab: true,
	action.CloseBrowser: true,
}

// LoadCustomRules reads a YAML rules file and prepends its rules to the
// table. A missing file is not an error; a malformed one is.
func (p *Parser) LoadCustomRules(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	compiled := make([]rule, 0, len(file.Rules))
	for i, cr := range file.Rules {
		r, err := compileCustomRule(cr)
		if err != nil {
			return fmt.Errorf("rules file %s, rule %d: %w", path, i+1, err)
		}
		compiled = append(compiled, r)
	}

	p.rules = append(compiled, p.rules...)
	return nil
}

func compileCustomRule(cr CustomRule) (rule, error) {
	verb := action.Verb(strings.TrimSpace(cr.Verb))
	if !knownVerbs[verb] {
		return rule{}, fmt.Errorf("unknown verb %q", cr.Verb)
	}
	if len(cr.Patterns) == 0 {
		return rule{}, fmt.Errorf("verb %q has no patterns", cr.Verb)
	}

	sources := make([]string, len(cr.Patterns))
	globs := make([]glob.Glob, len(cr.Patterns))
	for i, src := range cr.Patterns {
		src = strings.ToLower(strings.TrimSpace(src))
		if src == "" {
			return rule{}, fmt.Errorf("verb %q has an empty pattern", cr.Verb)
		}
		g, err := glob.Compile(src)
		if err != nil {
			return rule{}, fmt.Errorf("pattern %q: %w", src, err)
		}
		sources[i] = src
		globs[i] = g
	}

	arg := strings.TrimSpace(cr.Arg)
	if arg == "" {
		arg = "none"
	}
	switch arg {
	case "none", "url", "selector", "text", "number":
	default:
		return rule{}, fmt.Errorf("unknown arg kind %q", cr.Arg)
	}

	return rule{
		verb:     verb,
		patterns: globs,
		build: func(segment string) ([]action.Action, error) {
			return buildCustom(verb, arg, sources, globs, segment)
		},
	}, nil
}

func buildCustom(verb action.Verb, arg string, sources []string, globs []glob.Glob, segment string) ([]action.Action, error) {
	act := action.Action{Verb: verb}
	switch arg {
	case "none":
		return single(act), nil
	case "number":
		n, ok := trailingInt(segment)
		if !ok {
			return nil, &ParseError{Text: segment, Missing: "number"}
		}
		act.TabIndex = n
		return single(act), nil
	case "url":
		url := urlToken(segment)
		if url == "" {
			url = customRemainder(sources, globs, segment)
		}
		if url == "" {
			return nil, &ParseError{Text: segment, Missing: "url"}
		}
		act.Target = url
		return single(act), nil
	case "selector":
		sel := customArg(sources, globs, segment)
		if sel == "" {
			return nil, &ParseError{Text: segment, Missing: "selector"}
		}
		act.Target = sel
		return single(act), nil
	default: // text
		text := customArg(sources, globs, segment)
		if text == "" {
			return nil, &ParseError{Text: segment, Missing: "text"}
		}
		act.Payload = text
		return single(act), nil
	}
}

func customArg(sources []string, globs []glob.Glob, segment string) string {
	if quoted := quotedArgs(segment); len(quoted) > 0 {
		return quoted[0]
	}
	return customRemainder(sources, globs, segment)
}

// customRemainder strips the literal prefix of the matched pattern (the
// part before its first wildcard) and returns what is left of the segment.
func customRemainder(sources []string, globs []glob.Glob, segment string) string {
	lowered := strings.ToLower(segment)
	for i, g := range globs {
		if !g.Match(lowered) {
			continue
		}
		prefix := literalPrefix(sources[i])
		if prefix == "" || !strings.HasPrefix(lowered, prefix) {
			return ""
		}
		return unquote(strings.TrimSpace(segment[len(prefix):]))
	}
	return ""
}

func literalPrefix(pattern string) string {
	if idx := strings.IndexAny(pattern, "*?[{"); idx >= 0 {
		return pattern[:idx]
	}
	return pattern
}
