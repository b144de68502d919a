package parser

import (
	"strings"

	"github.com/entrhq/surf/pkg/action"
)

// defaultScrollAmount is the pixel distance used when a scroll instruction
// names no amount.
const defaultScrollAmount = 600

// builtinRules returns the built-in rule table in priority order. Tab and
// lifecycle phrasings come first so "switch to tab 3" never falls through
// to the navigation catch-all, which is last.
func builtinRules() []rule {
	return []rule{
		{
			verb: action.CloseBrowser,
			patterns: mustGlobs(
				"close the browser*", "close browser*", "stop the browser*",
				"stop browser*", "shut down*", "shutdown*", "quit", "exit",
			),
			build: func(string) ([]action.Action, error) {
				return single(action.Action{Verb: action.CloseBrowser}), nil
			},
		},
		{
			verb: action.ListTabs,
			patterns: mustGlobs(
				"list*tabs*", "show*tabs*", "what tabs*",
			),
			build: func(string) ([]action.Action, error) {
				return single(action.Action{Verb: action.ListTabs}), nil
			},
		},
		{
			verb: action.CurrentTab,
			patterns: mustGlobs(
				"current tab*", "which tab*", "what tab*",
			),
			build: func(string) ([]action.Action, error) {
				return single(action.Action{Verb: action.CurrentTab}), nil
			},
		},
		{
			verb: action.SwitchTab,
			patterns: mustGlobs(
				"switch*tab*", "go to tab*", "go to the *tab*", "select tab*",
			),
			build: buildSwitchTab,
		},
		{
			verb: action.CloseTab,
			patterns: mustGlobs(
				"close*tab*",
			),
			build: buildCloseTab,
		},
		{
			verb: action.OpenTab,
			patterns: mustGlobs(
				"open a new tab*", "open new tab*", "new tab*", "create*new tab*",
			),
			build: buildOpenTab,
		},
		{
			// "search for X" expands to the fill-then-submit pair the way a
			// person drives a search box.
			verb: action.Fill,
			patterns: mustGlobs(
				"search for *",
			),
			build: buildSearch,
		},
		{
			verb: action.Screenshot,
			patterns: mustGlobs(
				"*screenshot*", "capture*page*", "capture*screen*", "grab*screen*",
			),
			build: buildScreenshot,
		},
		{
			verb: action.Fill,
			patterns: mustGlobs(
				"fill *", "type *", "enter *",
			),
			build: buildFill,
		},
		{
			verb: action.Click,
			patterns: mustGlobs(
				"click*", "press *", "tap *",
			),
			build: buildClick,
		},
		{
			verb: action.WaitFor,
			patterns: mustGlobs(
				"wait for *", "wait until *", "wait *",
			),
			build: buildWaitFor,
		},
		{
			verb: action.GetText,
			patterns: mustGlobs(
				"get text*", "get the text*", "read text*", "text of *", "text from *",
			),
			build: buildGetText,
		},
		{
			verb: action.GetContent,
			patterns: mustGlobs(
				"get*content*", "read the page*", "*page content*", "extract*content*",
			),
			build: func(string) ([]action.Action, error) {
				return single(action.Action{Verb: action.GetContent}), nil
			},
		},
		{
			verb: action.GetTitle,
			patterns: mustGlobs(
				"get*title*", "what is the title*", "what's the title*",
				"page title*", "show*title*", "title",
			),
			build: func(string) ([]action.Action, error) {
				return single(action.Action{Verb: action.GetTitle}), nil
			},
		},
		{
			verb: action.Scroll,
			patterns: mustGlobs(
				"scroll*",
			),
			build: buildScroll,
		},
		{
			verb: action.ExecuteScript,
			patterns: mustGlobs(
				"run script *", "execute script *", "run js *", "execute js *",
				"js *", "eval *", "execute *", "run *",
			),
			build: buildExecuteScript,
		},
		{
			verb: action.Navigate,
			patterns: mustGlobs(
				"go to *", "goto *", "navigate *", "visit *", "open *",
				"load *", "browse to *", "take me to *",
			),
			build: buildNavigate,
		},
	}
}

func buildSwitchTab(segment string) ([]action.Action, error) {
	n, ok := trailingInt(segment)
	if !ok {
		return nil, &ParseError{Text: segment, Missing: "tab number"}
	}
	return single(action.Action{Verb: action.SwitchTab, TabIndex: n}), nil
}

func buildCloseTab(segment string) ([]action.Action, error) {
	// Bare "close the tab" closes the active one.
	n, _ := trailingInt(segment)
	return single(action.Action{Verb: action.CloseTab, TabIndex: n}), nil
}

func buildOpenTab(segment string) ([]action.Action, error) {
	act := action.Action{Verb: action.OpenTab, Target: urlToken(segment)}
	if _, after, ok := cutOutsideQuotes(segment, " for "); ok {
		fields := strings.Fields(after)
		if len(fields) > 0 {
			purpose := strings.Trim(fields[0], `"'.,;!?`)
			if !looksLikeURL(purpose) {
				act.Payload = strings.ToLower(purpose)
			}
		}
	}
	return single(act), nil
}

func buildSearch(segment string) ([]action.Action, error) {
	query := unquote(afterTrigger(segment, "search for"))
	if query == "" {
		return nil, &ParseError{Text: segment, Missing: "search query"}
	}
	return []action.Action{
		{Verb: action.Fill, Target: `input[name="q"]`, Payload: query},
		{Verb: action.Click, Target: `input[type="submit"]`},
	}, nil
}

func buildScreenshot(segment string) ([]action.Action, error) {
	act := action.Action{Verb: action.Screenshot}
	for _, tok := range strings.Fields(segment) {
		tok = strings.Trim(tok, `"'.,;!?`)
		lowered := strings.ToLower(tok)
		if strings.HasSuffix(lowered, ".png") ||
			strings.HasSuffix(lowered, ".jpg") ||
			strings.HasSuffix(lowered, ".jpeg") {
			act.Payload = tok
			break
		}
	}
	if strings.Contains(strings.ToLower(segment), "full") {
		act.FullPage = true
	}
	return single(act), nil
}

func buildFill(segment string) ([]action.Action, error) {
	// A trailing bare "with" means the text was never given.
	if strings.HasSuffix(strings.ToLower(segment), " with") {
		return nil, &ParseError{Text: segment, Missing: "text"}
	}

	// "fill <field> with <text>"
	if before, after, ok := cutOutsideQuotes(segment, " with "); ok {
		field := unquote(afterTrigger(before, "fill", "type", "enter"))
		text := unquote(strings.TrimSpace(after))
		if field == "" {
			return nil, &ParseError{Text: segment, Missing: "field"}
		}
		if text == "" {
			return nil, &ParseError{Text: segment, Missing: "text"}
		}
		return single(action.Action{Verb: action.Fill, Target: field, Payload: text}), nil
	}

	// "type <text> into <field>"
	for _, sep := range []string{" into ", " in "} {
		if before, after, ok := cutOutsideQuotes(segment, sep); ok {
			text := unquote(afterTrigger(before, "type", "enter", "fill"))
			field := unquote(trimFiller(strings.TrimSpace(after)))
			if text == "" {
				return nil, &ParseError{Text: segment, Missing: "text"}
			}
			if field == "" {
				return nil, &ParseError{Text: segment, Missing: "field"}
			}
			return single(action.Action{Verb: action.Fill, Target: field, Payload: text}), nil
		}
	}

	// Two quoted arguments: first is the field, second the text.
	if quoted := quotedArgs(segment); len(quoted) >= 2 {
		return single(action.Action{Verb: action.Fill, Target: quoted[0], Payload: quoted[1]}), nil
	}

	return nil, &ParseError{Text: segment, Missing: "field"}
}

func buildClick(segment string) ([]action.Action, error) {
	selector := ""
	if quoted := quotedArgs(segment); len(quoted) > 0 {
		selector = quoted[0]
	} else {
		selector = afterTrigger(segment, "click", "press", "tap")
	}
	if selector == "" {
		return nil, &ParseError{Text: segment, Missing: "selector"}
	}
	return single(action.Action{Verb: action.Click, Target: selector}), nil
}

func buildWaitFor(segment string) ([]action.Action, error) {
	selector := ""
	if quoted := quotedArgs(segment); len(quoted) > 0 {
		selector = quoted[0]
	} else {
		selector = afterTrigger(segment, "wait for", "wait until", "wait")
	}
	if selector == "" {
		return nil, &ParseError{Text: segment, Missing: "selector"}
	}
	return single(action.Action{Verb: action.WaitFor, Target: selector}), nil
}

func buildGetText(segment string) ([]action.Action, error) {
	selector := ""
	if quoted := quotedArgs(segment); len(quoted) > 0 {
		selector = quoted[0]
	} else {
		selector = afterTrigger(segment, "text of", "text from", "get the text", "get text", "read text")
	}
	if selector == "" {
		return nil, &ParseError{Text: segment, Missing: "selector"}
	}
	return single(action.Action{Verb: action.GetText, Target: selector}), nil
}

func buildScroll(segment string) ([]action.Action, error) {
	amount := defaultScrollAmount
	if n, ok := trailingInt(segment); ok && n > 0 {
		amount = n
	}
	if strings.Contains(strings.ToLower(segment), "up") {
		amount = -amount
	}
	return single(action.Action{Verb: action.Scroll, Amount: amount}), nil
}

func buildExecuteScript(segment string) ([]action.Action, error) {
	script := ""
	if quoted := quotedArgs(segment); len(quoted) > 0 {
		script = quoted[0]
	} else {
		script = afterTrigger(segment,
			"run script", "execute script", "run js", "execute js",
			"eval", "execute", "run", "js")
	}
	if script == "" {
		return nil, &ParseError{Text: segment, Missing: "script"}
	}
	return single(action.Action{Verb: action.ExecuteScript, Payload: script}), nil
}

func buildNavigate(segment string) ([]action.Action, error) {
	url := urlToken(segment)
	if url == "" {
		rest := unquote(afterTrigger(segment,
			"go to", "goto", "navigate to", "navigate", "visit", "open",
			"load", "browse to", "take me to"))
		if rest != "" && !strings.ContainsAny(rest, " \t") {
			url = rest
		}
	}
	if url == "" {
		return nil, &ParseError{Text: segment, Missing: "url"}
	}
	return single(action.Action{Verb: action.Navigate, Target: url}), nil
}
