package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RunREPL starts the interactive loop: each submitted line is sent to the
// daemon as its own request, and "quit"/"exit" leaves the loop without
// touching the daemon.
func RunREPL(c *Client) error {
	program := tea.NewProgram(newREPL(c), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB3BA")).Bold(true)
	inputStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFB3BA")).
			Padding(0, 1)
)

type responseMsg struct {
	rendered string
}

type replModel struct {
	client   *Client
	input    textinput.Model
	viewport viewport.Model
	content  *strings.Builder
	busy     bool
	ready    bool
	width    int
	height   int
}

func newREPL(c *Client) replModel {
	input := textinput.New()
	input.Placeholder = "open a new tab and go to example.com"
	input.Prompt = promptStyle.Render("surf> ")
	input.Focus()

	return replModel{
		client:  c,
		input:   input,
		content: &strings.Builder{},
	}
}

func (m replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		inputHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight
		}
		m.input.Width = msg.Width - 10
		m.viewport.SetContent(m.content.String())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			if lowered := strings.ToLower(line); lowered == "quit" || lowered == "exit" {
				return m, tea.Quit
			}
			m.input.Reset()
			m.appendLine(promptStyle.Render("> ") + line)
			m.busy = true
			return m, m.send(line)
		}

	case responseMsg:
		m.busy = false
		m.appendLine(msg.rendered + "\n")
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m replModel) View() string {
	if !m.ready {
		return "starting..."
	}
	return fmt.Sprintf("%s\n%s", m.viewport.View(), inputStyle.Width(m.width-2).Render(m.input.View()))
}

func (m *replModel) appendLine(line string) {
	m.content.WriteString(line + "\n")
	m.viewport.SetContent(m.content.String())
	m.viewport.GotoBottom()
}

func (m replModel) send(line string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Send(line)
		if err != nil {
			return responseMsg{rendered: errorStyle.Render("error") + " " + err.Error()}
		}
		return responseMsg{rendered: Render(resp)}
	}
}
