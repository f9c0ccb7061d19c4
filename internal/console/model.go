// Package console is the full-screen terminal front end built on
// bubbletea.
package console

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/netplane/internal/runner"
)

// View represents the tabs of the console
type View int

const (
	ViewConsole View = iota
	ViewReference
	ViewHistory
	viewCount
)

var viewNames = []string{"Console", "Reference", "History"}

// HistoryFunc loads recent audit lines for the history tab
type HistoryFunc func(ctx context.Context) ([]string, error)

// Options configures the console
type Options struct {
	Runner  runner.Runner
	History HistoryFunc
	// Timeout bounds each command; zero waits indefinitely
	Timeout time.Duration
}

// exchange is one command and its output in the transcript
type exchange struct {
	command string
	output  string
	err     error
}

// Model is the bubbletea model of the console
type Model struct {
	view    View
	width   int
	height  int
	ready   bool
	loading bool

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	runner  runner.Runner
	history HistoryFunc
	timeout time.Duration

	transcript []exchange
	reference  string
	entries    []string
	historyErr error

	// recall holds submitted lines for up/down navigation
	recall    []string
	recallPos int
}

// NewModel creates a console model
func NewModel(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "add upstream ups0"
	ta.Focus()
	ta.CharLimit = 4096
	ta.SetWidth(80)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		view:     ViewConsole,
		textarea: ta,
		spinner:  sp,
		runner:   opts.Runner,
		history:  opts.History,
		timeout:  opts.Timeout,
	}
}

// Run starts the console on the terminal and blocks until it exits
func Run(opts Options) error {
	_, err := tea.NewProgram(NewModel(opts), tea.WithAltScreen()).Run()
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.loadReference(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.view = (m.view + 1) % viewCount
			m.updateContent()
			if m.view == ViewHistory {
				return m, m.loadHistory()
			}
			return m, nil

		case "enter":
			if m.view != ViewConsole || m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if input == "exit" || input == "quit" {
				return m, tea.Quit
			}
			m.textarea.Reset()
			m.recall = append(m.recall, input)
			m.recallPos = len(m.recall)
			m.loading = true
			return m, tea.Batch(m.execute(input), m.spinner.Tick)

		case "up", "down":
			if m.view == ViewConsole && len(m.recall) > 0 {
				m.stepRecall(msg.String() == "up")
				return m, nil
			}

		case "ctrl+l":
			if m.view == ViewConsole {
				m.transcript = nil
				m.updateContent()
			}
			return m, nil

		case "ctrl+r":
			if m.view == ViewHistory {
				return m, m.loadHistory()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-8))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-8)
		}
		m.textarea.SetWidth(max(10, msg.Width-4))
		m.updateContent()

	case commandResultMsg:
		m.loading = false
		m.transcript = append(m.transcript, exchange{command: msg.command, output: msg.output, err: msg.err})
		m.updateContent()

	case referenceMsg:
		if msg.err != nil {
			m.reference = RenderError(msg.err.Error())
		} else {
			m.reference = msg.text
		}
		m.updateContent()

	case historyMsg:
		m.entries = msg.lines
		m.historyErr = msg.err
		m.updateContent()

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) stepRecall(back bool) {
	if back && m.recallPos > 0 {
		m.recallPos--
	} else if !back && m.recallPos < len(m.recall) {
		m.recallPos++
	}
	if m.recallPos == len(m.recall) {
		m.textarea.Reset()
		return
	}
	m.textarea.SetValue(m.recall[m.recallPos])
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")

	if m.view == ViewConsole {
		if m.loading {
			s.WriteString(m.spinner.View())
			s.WriteString(" running...\n")
		}
		s.WriteString(FocusedInputStyle.Render(m.textarea.View()))
		s.WriteString("\n")
	}

	s.WriteString(m.renderFooter())
	return s.String()
}

func (m *Model) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if View(i) == m.view {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, TabStyle.Render(name))
		}
	}

	title := TitleStyle.Render("netplane")
	target := ""
	if m.runner != nil {
		target = SubtitleStyle.Render(" " + m.runner.Target())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title+target,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func (m *Model) renderFooter() string {
	help := "Tab: switch • Enter: run • ↑/↓: recall • Ctrl+L: clear • Ctrl+C: quit"
	if m.view == ViewHistory {
		help = "Tab: switch • Ctrl+R: refresh • Ctrl+C: quit"
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

// updateContent fills the viewport for the current view
func (m *Model) updateContent() {
	var content strings.Builder

	switch m.view {
	case ViewConsole:
		for _, ex := range m.transcript {
			content.WriteString(CommandStyle.Render("> " + ex.command))
			content.WriteString("\n")
			if ex.err != nil {
				content.WriteString(RenderError(ex.err.Error()))
			} else {
				content.WriteString(OutputStyle.Render(ex.output))
			}
			content.WriteString("\n\n")
		}

	case ViewReference:
		content.WriteString(m.reference)

	case ViewHistory:
		switch {
		case m.history == nil:
			content.WriteString(HelpStyle.Render("no audit store configured"))
		case m.historyErr != nil:
			content.WriteString(RenderError(m.historyErr.Error()))
		case len(m.entries) == 0:
			content.WriteString(HelpStyle.Render("no commands recorded"))
		default:
			content.WriteString(strings.Join(m.entries, "\n"))
		}
	}

	m.viewport.SetContent(content.String())
	if m.view == ViewConsole {
		m.viewport.GotoBottom()
	} else {
		m.viewport.GotoTop()
	}
}

// Message types for async operations
type commandResultMsg struct {
	command string
	output  string
	err     error
}

type referenceMsg struct {
	text string
	err  error
}

type historyMsg struct {
	lines []string
	err   error
}

// execute runs a command off the UI goroutine
func (m *Model) execute(line string) tea.Cmd {
	r, timeout := m.runner, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res, err := r.Run(ctx, line)
		if err != nil {
			return commandResultMsg{command: line, err: err}
		}

		lines := res.Lines()
		out := strings.Join(lines, "\n")
		switch {
		case res.Value == nil:
			out = "(done)"
		case len(lines) == 0:
			out = "(empty)"
		}
		return commandResultMsg{command: line, output: out}
	}
}

func (m *Model) loadReference() tea.Cmd {
	r := m.runner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		text, err := r.Help(ctx)
		return referenceMsg{text: text, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	load := m.history
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		lines, err := load(ctx)
		return historyMsg{lines: lines, err: err}
	}
}
