package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/msto63/netplane/foundation/rcl"
)

type stubRunner struct {
	results map[string]*rcl.CmdResult
	err     error
}

func (s *stubRunner) Run(_ context.Context, line string) (*rcl.CmdResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[line]; ok {
		return r, nil
	}
	return &rcl.CmdResult{}, nil
}

func (s *stubRunner) Help(context.Context) (string, error) { return "reference text", nil }
func (s *stubRunner) Target() string                      { return "stub" }

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Msg) {
	t.Helper()
	m.textarea.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if !m.loading {
		t.Fatal("expected loading after enter")
	}
	if cmd == nil {
		t.Fatal("expected command from enter")
	}
	// the batch carries the execution; run it directly
	return m, m.execute(line)()
}

func TestView_BeforeSize(t *testing.T) {
	m := NewModel(Options{Runner: &stubRunner{}})
	if got := m.View(); got != "loading..." {
		t.Errorf("View() = %q", got)
	}
}

func TestEnter_RunsCommand(t *testing.T) {
	r := &stubRunner{results: map[string]*rcl.CmdResult{
		"list upstream": {Value: []string{"ups0", "ups1"}, Rendered: []string{"ups0", "ups1"}, Text: "ups0\nups1"},
	}}
	m := sized(t, NewModel(Options{Runner: r}))

	m, msg := submit(t, m, "list upstream")
	res, ok := msg.(commandResultMsg)
	if !ok {
		t.Fatalf("msg = %T", msg)
	}
	if res.output != "ups0\nups1" {
		t.Errorf("output = %q", res.output)
	}

	next, _ := m.Update(res)
	m = next.(Model)
	if m.loading {
		t.Error("still loading after result")
	}
	if len(m.transcript) != 1 || m.transcript[0].command != "list upstream" {
		t.Errorf("transcript = %+v", m.transcript)
	}
	if m.textarea.Value() != "" {
		t.Errorf("input not cleared: %q", m.textarea.Value())
	}
	if !strings.Contains(m.View(), "ups1") {
		t.Error("view does not show output")
	}
}

func TestEnter_EmptyResults(t *testing.T) {
	r := &stubRunner{results: map[string]*rcl.CmdResult{
		"list tcp-lb": {Value: []string{}, Rendered: []string{}},
	}}
	m := sized(t, NewModel(Options{Runner: r}))

	_, msg := submit(t, m, "add upstream ups0")
	if got := msg.(commandResultMsg).output; got != "(done)" {
		t.Errorf("nil value output = %q", got)
	}
	_, msg = submit(t, m, "list tcp-lb")
	if got := msg.(commandResultMsg).output; got != "(empty)" {
		t.Errorf("empty list output = %q", got)
	}
}

func TestEnter_Error(t *testing.T) {
	m := sized(t, NewModel(Options{Runner: &stubRunner{err: errors.New("boom")}}))
	m, msg := submit(t, m, "add upstream ups0")
	next, _ := m.Update(msg)
	m = next.(Model)
	if m.transcript[0].err == nil {
		t.Fatal("expected error in transcript")
	}
	if !strings.Contains(m.View(), "error: boom") {
		t.Error("view does not show error")
	}
}

func TestEnter_IgnoresBlankAndQuits(t *testing.T) {
	m := sized(t, NewModel(Options{Runner: &stubRunner{}}))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || next.(Model).loading {
		t.Error("blank input should do nothing")
	}

	m.textarea.SetValue("quit")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit did not return tea.Quit")
	}
}

func TestTab_SwitchesViews(t *testing.T) {
	m := sized(t, NewModel(Options{Runner: &stubRunner{}}))

	next, _ := m.Update(referenceMsg{text: "reference text"})
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.view != ViewReference {
		t.Fatalf("view = %d", m.view)
	}
	if !strings.Contains(m.View(), "reference text") {
		t.Error("reference view missing help text")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if m.view != ViewHistory {
		t.Fatalf("view = %d", m.view)
	}
	if cmd != nil {
		t.Error("history without a loader should not schedule work")
	}
	if !strings.Contains(m.View(), "no audit store configured") {
		t.Error("history view missing placeholder")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if next.(Model).view != ViewConsole {
		t.Error("tab did not wrap to console")
	}
}

func TestHistory_Loads(t *testing.T) {
	load := func(context.Context) ([]string, error) {
		return []string{"ok add upstream ups0"}, nil
	}
	m := sized(t, NewModel(Options{Runner: &stubRunner{}, History: load}))
	m.view = ViewHistory

	msg := m.loadHistory()()
	next, _ := m.Update(msg)
	m = next.(Model)
	if !strings.Contains(m.View(), "ok add upstream ups0") {
		t.Error("history entries not rendered")
	}
}

func TestRecall(t *testing.T) {
	m := sized(t, NewModel(Options{Runner: &stubRunner{}}))
	m.recall = []string{"list upstream", "list tcp-lb"}
	m.recallPos = len(m.recall)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if got := m.textarea.Value(); got != "list tcp-lb" {
		t.Errorf("after up = %q", got)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(Model)
	if got := m.textarea.Value(); got != "list upstream" {
		t.Errorf("after second up = %q", got)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := next.(Model).textarea.Value(); got != "" {
		t.Errorf("after returning down = %q", got)
	}
}

func TestClear(t *testing.T) {
	m := sized(t, NewModel(Options{Runner: &stubRunner{}}))
	m.transcript = []exchange{{command: "x", output: "y"}}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(next.(Model).transcript) != 0 {
		t.Error("ctrl+l did not clear transcript")
	}
}
