package tui

import (
	"strings"
	"testing"

	"perplex-cli/internal/app"

	tea "github.com/charmbracelet/bubbletea"
)

func testApp(t *testing.T) *app.Application {
	t.Helper()
	a, err := app.NewApplication(app.DefaultConfig(), true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return applyWindowSize(t, New(testApp(t)))
}

func applyWindowSize(t *testing.T, m *Model) *Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	out, ok := updated.(*Model)
	if !ok {
		t.Fatalf("expected *Model, got %T", updated)
	}
	return out
}

func sendEnter(t *testing.T, m *Model, value string) (*Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(value)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := updated.(*Model)
	if !ok {
		t.Fatalf("expected *Model, got %T", updated)
	}
	return out, cmd
}

func pressKey(t *testing.T, m *Model, keyType tea.KeyType) *Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: keyType})
	out, ok := updated.(*Model)
	if !ok {
		t.Fatalf("expected *Model, got %T", updated)
	}
	return out
}

// drain runs a command tree to completion, feeding every produced message
// back through Update. Spinner ticks are dropped so the loop terminates.
func drain(t *testing.T, m *Model, cmd tea.Cmd) *Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return m
	case spinMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
		return m
	default:
		updated, next := m.Update(msg)
		out, ok := updated.(*Model)
		if !ok {
			t.Fatalf("expected *Model, got %T", updated)
		}
		return drain(t, out, next)
	}
}

func TestEnterSubmitsQueryAndShowsAnswer(t *testing.T) {
	m := newTestModel(t)

	m, cmd := sendEnter(t, m, "what is golang?")
	if !m.app.Session.Awaiting() {
		t.Fatalf("expected session to be awaiting after enter")
	}
	if got := m.input.Value(); got != "" {
		t.Fatalf("input not cleared after send: %q", got)
	}
	snap := m.app.Session.Snapshot()
	if len(snap.Turns) != 1 || snap.Turns[0].Role != app.RoleUser {
		t.Fatalf("expected a single user turn, got %+v", snap.Turns)
	}

	m = drain(t, m, cmd)

	if m.app.Session.Awaiting() {
		t.Fatalf("still awaiting after answer arrived")
	}
	snap = m.app.Session.Snapshot()
	if len(snap.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(snap.Turns))
	}
	answer := snap.Turns[1]
	if answer.Role != app.RoleAssistant || answer.Content == "" {
		t.Fatalf("unexpected answer turn: %+v", answer)
	}
	if len(answer.Sources) == 0 {
		t.Fatalf("mock answer should carry sources")
	}

	view := m.View()
	if !strings.Contains(view, "You") {
		t.Fatalf("view missing user turn:\n%s", view)
	}
	if !strings.Contains(view, "Sources") {
		t.Fatalf("view missing sources block:\n%s", view)
	}
}

func TestEnterWithBlankInputIsNoOp(t *testing.T) {
	m := newTestModel(t)

	m, cmd := sendEnter(t, m, "   \t  ")
	if cmd != nil {
		t.Fatalf("expected no command for blank input")
	}
	if m.app.Session.Awaiting() {
		t.Fatalf("blank input must not start a dispatch")
	}
	if turns := m.app.Session.Snapshot().Turns; len(turns) != 0 {
		t.Fatalf("blank input appended turns: %+v", turns)
	}
}

func TestEnterWhileSearchingKeepsDraft(t *testing.T) {
	m := newTestModel(t)

	m, _ = sendEnter(t, m, "first question")

	m.input.SetValue("second question")
	m = pressKey(t, m, tea.KeyEnter)

	if got := m.input.Value(); got != "second question" {
		t.Fatalf("draft lost on rejected submit: %q", got)
	}
	if turns := m.app.Session.Snapshot().Turns; len(turns) != 1 {
		t.Fatalf("expected only the first user turn, got %d", len(turns))
	}
}

func TestClearStartsNewConversation(t *testing.T) {
	m := newTestModel(t)

	m, cmd := sendEnter(t, m, "what is golang?")
	m = drain(t, m, cmd)

	m = pressKey(t, m, tea.KeyCtrlL)

	snap := m.app.Session.Snapshot()
	if len(snap.Turns) != 0 {
		t.Fatalf("transcript not cleared: %+v", snap.Turns)
	}
	if snap.Epoch != 2 {
		t.Fatalf("expected epoch 2 after submit+clear, got %d", snap.Epoch)
	}
	if !strings.Contains(m.View(), "Ask anything") {
		t.Fatalf("welcome text missing after clear")
	}
}

func TestLateAnswerAfterClearIsDiscarded(t *testing.T) {
	m := newTestModel(t)

	m, cmd := sendEnter(t, m, "what is golang?")

	// Conversation cleared before the answer lands.
	m = pressKey(t, m, tea.KeyCtrlL)
	m = drain(t, m, cmd)

	if turns := m.app.Session.Snapshot().Turns; len(turns) != 0 {
		t.Fatalf("stale answer reached the transcript: %+v", turns)
	}
	if m.app.Session.Awaiting() {
		t.Fatalf("session stuck awaiting after discard")
	}
}

func TestTypingTracksPendingDraft(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m = updated.(*Model)

	if got := m.app.Session.Snapshot().PendingQuery; got != "hi" {
		t.Fatalf("pending draft = %q, want %q", got, "hi")
	}
}

func TestSpinnerOnlyTicksWhileSearching(t *testing.T) {
	m := newTestModel(t)

	m, _ = sendEnter(t, m, "first question")
	updated, cmd := m.Update(spinMsg{})
	m = updated.(*Model)
	if cmd == nil {
		t.Fatalf("spinner should reschedule while searching")
	}
	if m.spinnerPos != 1 {
		t.Fatalf("spinner did not advance: %d", m.spinnerPos)
	}

	m.app.Session.Reset()
	updated, cmd = m.Update(spinMsg{})
	m = updated.(*Model)
	if cmd != nil {
		t.Fatalf("spinner should stop when idle")
	}
	if m.spinnerPos != 1 {
		t.Fatalf("spinner advanced while idle: %d", m.spinnerPos)
	}
}

func TestRenderSourcesNumbersEntries(t *testing.T) {
	out := renderSources([]app.Source{
		{Title: "The Go Programming Language", URL: "https://go.dev"},
		{URL: "https://example.com/item"},
	}, 80)

	for _, want := range []string{"Sources", "[1]", "The Go Programming Language", "https://go.dev", "[2]", "https://example.com/item"} {
		if !strings.Contains(out, want) {
			t.Fatalf("sources block missing %q:\n%s", want, out)
		}
	}
}
