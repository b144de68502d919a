package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerb_RequiresTab(t *testing.T) {
	pageVerbs := []Verb{
		Navigate, Click, Fill, Screenshot, ExecuteScript, Scroll,
		GetContent, GetTitle, GetText, WaitFor,
	}
	for _, v := range pageVerbs {
		assert.True(t, v.RequiresTab(), "verb %s", v)
	}

	tabVerbs := []Verb{
		OpenTab, SwitchTab, CloseTab, ListTabs, CurrentTab, CloseBrowser,
	}
	for _, v := range tabVerbs {
		assert.False(t, v.RequiresTab(), "verb %s", v)
	}

	assert.False(t, Verb("teleport").RequiresTab())
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		name string
		act  Action
		want string
	}{
		{"bare verb", Action{Verb: ListTabs}, "list_tabs"},
		{"with target", Action{Verb: Click, Target: "#go"}, "click(#go)"},
		{"with tab index", Action{Verb: SwitchTab, TabIndex: 2}, "switch_tab(2)"},
		{"index wins over target", Action{Verb: CloseTab, Target: "x", TabIndex: 1}, "close_tab(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.act.String())
		})
	}
}
