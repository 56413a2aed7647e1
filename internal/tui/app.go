package tui

import (
	"fmt"
	"strings"
	"time"

	"perplex-cli/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the conversation screen. The transcript itself lives in the
// session controller; the model only renders snapshots of it, so a clear or
// a late answer never needs UI-side bookkeeping.
type Model struct {
	app        *app.Application
	input      textarea.Model
	viewport   viewport.Model
	help       helpModel
	markdown   *MarkdownRenderer
	width      int
	height     int
	ready      bool
	spinnerPos int
}

// answerMsg carries a finished dispatch back into the update loop. The
// controller decides at reconcile time whether it still belongs to the
// current conversation.
type answerMsg struct {
	outcome app.Outcome
}

// spinMsg drives the searching indicator.
type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const welcomeText = `Ask anything. Answers come back with the sources they were drawn from.

enter sends your question, ctrl+l starts a new conversation.`

// New creates the conversation screen for an application.
func New(application *app.Application) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your question... (enter to send)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(76)
	ta.SetHeight(3)
	ta.Prompt = "▍ "

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFgMuted))
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFgMuted))

	return &Model{
		app:      application,
		input:    ta,
		help:     newHelpModel(),
		markdown: NewMarkdownRenderer(),
		width:    80,
		height:   24,
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vw := msg.Width - 4
		if vw < 20 {
			vw = 20
		}
		vh := msg.Height - 12
		if vh < 3 {
			vh = 3
		}
		if !m.ready {
			m.viewport = viewport.New(vw, vh)
			m.viewport.Style = viewportStyle
			m.ready = true
		} else {
			m.viewport.Width = vw
			m.viewport.Height = vh
		}
		m.input.SetWidth(msg.Width - 8)
		m.help.SetWidth(msg.Width)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.help.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.help.keys.Submit):
			dispatch, ok := m.app.Session.Submit(m.input.Value())
			if !ok {
				return m, nil
			}
			m.input.Reset()
			m.spinnerPos = 0
			m.refreshTranscript()
			m.viewport.GotoBottom()
			return m, tea.Batch(awaitAnswer(dispatch), m.spinCmd())

		case key.Matches(msg, m.help.keys.Clear):
			m.app.Session.Reset()
			m.refreshTranscript()
			m.viewport.GotoTop()
			return m, nil

		case key.Matches(msg, m.help.keys.ScrollUp):
			m.viewport.HalfViewUp()
			return m, nil

		case key.Matches(msg, m.help.keys.ScrollDown):
			m.viewport.HalfViewDown()
			return m, nil
		}

	case answerMsg:
		m.app.Session.Reconcile(msg.outcome)
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case spinMsg:
		if m.app.Session.Awaiting() {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			return m, m.spinCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.app.Session.SetPending(m.input.Value())
	return m, cmd
}

func (m *Model) View() string {
	if !m.ready {
		return "\n  starting perplex..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.app.Session.Awaiting() {
		frame := spinnerFrames[m.spinnerPos%len(spinnerFrames)]
		b.WriteString(searchingStyle.Render(fmt.Sprintf("%s Searching...", frame)))
		b.WriteString("\n")
	}

	b.WriteString(inputStyle.Width(m.width - 4).Render(m.input.View()))
	b.WriteString("\n")

	b.WriteString(m.help.View())

	return b.String()
}

func (m *Model) renderHeader() string {
	target := m.app.Config.Endpoint
	if m.app.Mock {
		target = "offline mock"
	}
	return headerStyle.Width(m.width - 4).Render(fmt.Sprintf("perplex · %s", target))
}

// refreshTranscript rebuilds the viewport from the current session snapshot.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	width := m.width - 8
	if width < 24 {
		width = 24
	}

	snap := m.app.Session.Snapshot()

	var b strings.Builder
	if len(snap.Turns) == 0 {
		b.WriteString(welcomeStyle.Width(width).Render(welcomeText))
		b.WriteString("\n")
	}
	for _, turn := range snap.Turns {
		b.WriteString(m.renderTurn(turn, width))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
}

func (m *Model) renderTurn(turn app.Turn, width int) string {
	var label string
	var labelStyle lipgloss.Style
	switch turn.Role {
	case app.RoleUser:
		label = "You"
		labelStyle = userLabelStyle
	default:
		label = "Perplex"
		labelStyle = answerLabelStyle
	}

	header := labelStyle.Render(fmt.Sprintf("%s · %s", label, turn.CreatedAt.Format("15:04:05")))

	content := turn.Content
	if turn.Role == app.RoleAssistant {
		content = m.markdown.Render(content, width)
	}
	body := turnBodyStyle.Width(width).Render(content)

	out := header + "\n" + body
	if len(turn.Sources) > 0 {
		out += "\n" + renderSources(turn.Sources, width)
	}
	return out + "\n"
}

// renderSources lists the citations under an answer, numbered in the order
// the service returned them.
func renderSources(sources []app.Source, width int) string {
	var b strings.Builder
	b.WriteString(sourceHeaderStyle.Render("Sources"))
	b.WriteString("\n")
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		b.WriteString(fmt.Sprintf("  [%d] %s", i+1, sourceTitleStyle.Render(title)))
		if src.URL != "" && src.URL != title {
			b.WriteString("  " + sourceURLStyle.Render(src.URL))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

// awaitAnswer runs the dispatch off the update loop and feeds the outcome
// back as a message.
func awaitAnswer(dispatch app.Dispatch) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{outcome: dispatch()}
	}
}

func (m *Model) spinCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(_ time.Time) tea.Msg {
		return spinMsg{}
	})
}

// Colors follow the One Dark palette.
const (
	colorBg      = "#1E222A"
	colorSurface = "#282C34"
	colorFg      = "#ABB2BF"
	colorFgMuted = "#5C6370"
	colorBorder  = "#3E4451"
	colorAccent  = "#61AFEF"
	colorAnswer  = "#98C379"
	colorWarn    = "#E5C07B"
	colorError   = "#E06C75"
	colorLink    = "#56B6C2"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorFg)).
			Background(lipgloss.Color(colorSurface)).
			Padding(0, 1)

	viewportStyle = lipgloss.NewStyle().
			Padding(0, 1)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent))

	answerLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorAnswer))

	turnBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFg)).
			PaddingLeft(2)

	searchingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorWarn)).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			Padding(1, 2)

	sourceHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorWarn)).
				PaddingLeft(2)

	sourceTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorFg))

	sourceURLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorLink)).
			Underline(true)
)
