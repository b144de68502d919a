package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/surf/pkg/protocol"
	"github.com/entrhq/surf/pkg/tabs"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8E6CF"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB3BA"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8E6CF")).Bold(true)
)

// Render formats a response for the terminal: the message line, per-step
// results for compound instructions, and any structured data.
func Render(resp protocol.Response) string {
	var b strings.Builder

	if resp.OK() {
		b.WriteString(okStyle.Render("ok") + " " + resp.Message)
	} else {
		b.WriteString(errorStyle.Render("error") + " " + resp.Message)
	}

	for _, step := range resp.Steps {
		mark := okStyle.Render("+")
		if step.Status != protocol.StatusOK {
			mark = errorStyle.Render("x")
		}
		b.WriteString(fmt.Sprintf("\n  %s %s", mark, step.Action))
		if step.Message != "" {
			b.WriteString(mutedStyle.Render(" - " + step.Message))
		}
	}

	if data := renderData(resp.Data); data != "" {
		b.WriteString("\n" + data)
	}
	return b.String()
}

func renderData(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}

	// A tab listing gets a dedicated layout; everything else prints as
	// indented JSON.
	var listing struct {
		Tabs []tabs.Info `json:"tabs"`
	}
	if err := json.Unmarshal(data, &listing); err == nil && len(listing.Tabs) > 0 {
		return renderTabs(listing.Tabs)
	}

	var pretty map[string]any
	if err := json.Unmarshal(data, &pretty); err != nil {
		return ""
	}
	out, err := json.MarshalIndent(pretty, "  ", "  ")
	if err != nil {
		return ""
	}
	return mutedStyle.Render("  " + string(out))
}

func renderTabs(infos []tabs.Info) string {
	var b strings.Builder
	for i, info := range infos {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := fmt.Sprintf("  %d. %s", info.Index, info.Title)
		if info.URL != "" {
			line += mutedStyle.Render("  " + info.URL)
		}
		if info.Active {
			b.WriteString(activeStyle.Render("*") + line[1:])
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}
