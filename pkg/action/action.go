// Package action defines the structured command representation produced by
// the natural-language parser and consumed by the dispatcher. An Action is
// ephemeral: it lives for the duration of one request and is never persisted.
package action

import "fmt"

// Verb identifies the operation an Action performs.
type Verb string

const (
	// Page operations (require a target tab).
	Navigate      Verb = "navigate"
	Click         Verb = "click"
	Fill          Verb = "fill"
	Screenshot    Verb = "screenshot"
	ExecuteScript Verb = "execute_script"
	Scroll        Verb = "scroll"
	GetContent    Verb = "get_content"
	GetTitle      Verb = "get_title"
	GetText       Verb = "get_text"
	WaitFor       Verb = "wait_for"

	// Tab management.
	OpenTab    Verb = "open_tab"
	SwitchTab  Verb = "switch_tab"
	CloseTab   Verb = "close_tab"
	ListTabs   Verb = "list_tabs"
	CurrentTab Verb = "current_tab"

	// Daemon control.
	CloseBrowser Verb = "close_browser"
)

// Action is one parsed instruction. Which fields are meaningful depends on
// the verb: Target carries a CSS selector or URL, Payload carries fill text,
// script source, or a screenshot path.
type Action struct {
	Verb Verb `json:"verb"`

	// Target is a CSS selector (click, fill, get_text, wait_for) or a URL
	// (navigate, open_tab).
	Target string `json:"target,omitempty"`

	// Payload is free text: fill value, script source, screenshot filename,
	// or a tab purpose label for open_tab.
	Payload string `json:"payload,omitempty"`

	// TabIndex is a 1-based tab position for switch_tab and close_tab.
	// Zero means "not specified".
	TabIndex int `json:"tab_index,omitempty"`

	// FullPage requests a full-page screenshot.
	FullPage bool `json:"full_page,omitempty"`

	// Amount is a scroll distance in pixels. Negative scrolls up.
	Amount int `json:"amount,omitempty"`
}

// RequiresTab reports whether the verb operates on a page and therefore
// needs a resolvable target tab before any driver call is made.
func (v Verb) RequiresTab() bool {
	switch v {
	case Navigate, Click, Fill, Screenshot, ExecuteScript, Scroll,
		GetContent, GetTitle, GetText, WaitFor:
		return true
	}
	return false
}

func (a Action) String() string {
	switch {
	case a.TabIndex > 0:
		return fmt.Sprintf("%s(%d)", a.Verb, a.TabIndex)
	case a.Target != "":
		return fmt.Sprintf("%s(%s)", a.Verb, a.Target)
	default:
		return string(a.Verb)
	}
}
