// Package tui provides the Bubble Tea terminal interface for the course
// materials assistant.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/lectern/lectern/internal/client"
)

// State represents TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput    State = iota // Awaiting user input
	StateThinking              // Query in flight
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 100 // Maximum messages stored
	maxHistory  = 100 // Maximum command history entries
)

// queryTimeout bounds a single question round trip. Tool-calling generation
// can take a while on slow providers.
const queryTimeout = 5 * time.Minute

// Message role constants for consistent display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Two separator lines (above and below input)
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

const welcomeText = "Welcome to the Course Materials Assistant! I can help you with questions about courses, lessons and specific content. What would you like to know?"

// Message represents a conversation message for display. Assistant messages
// may carry the sources their answer was grounded on.
type Message struct {
	Role    string // "user", "assistant", "system", "error"
	Text    string
	Sources []string
}

// TUI is the Bubble Tea model for the chat interface.
type TUI struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state       State
	lastCtrlC   time.Time
	showSources bool

	// Output
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	messages []Message

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// In-flight query. Only one query runs at a time; submissions while
	// state is StateThinking are ignored.
	queryCancel context.CancelFunc

	// Dependencies
	api     *client.Client
	session *client.SessionCell
	ctx     context.Context

	// Course stats shown in the banner area. Zero until the startup
	// fetch completes; a failed fetch keeps the zero value and sets
	// statsFailed so the banner shows a placeholder.
	courseCount  int
	courseTitles []string
	statsFailed  bool

	// Dimensions
	width  int
	height int

	// Theme and styles
	theme  Theme
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addMessage appends a message and enforces maxMessages bound.
func (t *TUI) addMessage(msg Message) {
	t.messages = append(t.messages, msg)
	if len(t.messages) > maxMessages {
		t.messages = t.messages[len(t.messages)-maxMessages:]
	}
}

// New creates a TUI model backed by the given API client.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, api *client.Client) (*TUI, error) {
	if api == nil {
		return nil, errors.New("tui.New: API client is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	ta := textarea.New()
	ta.Placeholder = "Ask about the course materials..."
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Viewport key bindings are disabled; handleKey routes scroll keys
	// explicitly to avoid conflicts with textarea/history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	theme := LoadTheme()

	t := &TUI{
		api:      api,
		session:  &client.SessionCell{},
		ctx:      ctx,
		input:    ta,
		spinner:  sp,
		viewport: vp,
		help:     help.New(),
		keys:     newKeyMap(),
		theme:    theme,
		styles:   StylesFor(theme),
		history:  make([]string, 0, maxHistory),
		markdown: newMarkdownRenderer(80, theme),
		width:    80, // Default width until WindowSizeMsg arrives
	}
	t.addMessage(Message{Role: roleAssistant, Text: welcomeText})
	return t, nil
}

// Init implements tea.Model.
func (t *TUI) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		t.spinner.Tick,
		t.input.Focus(),
		fetchStats(t.ctx, t.api),
	)
}

// Update implements tea.Model.
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return t.handleKey(msg)

	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height

		inputHeight := t.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		t.viewport.SetWidth(msg.Width)
		t.viewport.SetHeight(vpHeight)
		t.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		t.help.SetWidth(msg.Width)
		t.markdown.UpdateWidth(msg.Width)

		t.rebuildViewportContent()
		return t, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return t, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		t.spinner, cmd = t.spinner.Update(msg)
		if t.state == StateThinking {
			t.rebuildViewportContent()
		}
		return t, cmd

	case statsMsg:
		// A failed fetch is not fatal; the banner shows zero courses
		// and an error placeholder, and the chat keeps working.
		t.statsFailed = msg.err != nil
		if msg.err == nil {
			t.courseCount = msg.stats.TotalCourses
			t.courseTitles = msg.stats.CourseTitles
		}
		t.rebuildViewportContent()
		return t, nil

	case queryResultMsg:
		t.finishQuery()
		t.session.Adopt(msg.result.SessionID)
		t.addMessage(Message{
			Role:    roleAssistant,
			Text:    msg.result.Answer,
			Sources: msg.result.Sources,
		})
		t.appendRebuild()
		return t, t.input.Focus()

	case queryErrorMsg:
		t.finishQuery()
		switch {
		case errors.Is(msg.err, context.Canceled):
			t.addMessage(Message{Role: roleSystem, Text: "(Canceled)"})
		case errors.Is(msg.err, context.DeadlineExceeded):
			t.addMessage(Message{Role: roleError, Text: "Query timeout (>5 min). Try a simpler question."})
		default:
			t.addMessage(Message{Role: roleError, Text: msg.err.Error()})
		}
		t.appendRebuild()
		return t, t.input.Focus()
	}

	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

// appendRebuild rebuilds the viewport after appending a message, following
// the scroll position: pinned to the bottom unless the user scrolled up.
func (t *TUI) appendRebuild() {
	atBottom := t.viewport.AtBottom()
	t.rebuildViewportContent()
	if atBottom {
		t.viewport.GotoBottom()
	}
}

// finishQuery returns the model to input state and releases the in-flight
// query context.
func (t *TUI) finishQuery() {
	t.state = StateInput
	if t.queryCancel != nil {
		t.queryCancel()
		t.queryCancel = nil
	}
}

// View implements tea.Model.
// Uses AltScreen with viewport for scrollable message history.
func (t *TUI) View() tea.View {
	t.viewBuf.Reset()

	_, _ = t.viewBuf.WriteString(t.viewport.View())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	// Input prompt - always visible so users can prepare the next
	// question while a query is in flight.
	_, _ = t.viewBuf.WriteString(t.styles.Prompt.Render("> "))
	_, _ = t.viewBuf.WriteString(t.input.View())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderSeparator())
	_, _ = t.viewBuf.WriteString("\n")

	_, _ = t.viewBuf.WriteString(t.renderStatusBar())

	v := tea.NewView(t.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport content from messages
// and state. Called when messages, theme, or state change.
func (t *TUI) rebuildViewportContent() {
	var b strings.Builder

	_, _ = b.WriteString(t.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(t.renderStats())
	_, _ = b.WriteString("\n\n")

	for _, msg := range t.messages {
		switch msg.Role {
		case roleUser:
			_, _ = b.WriteString(t.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case roleAssistant:
			_, _ = b.WriteString(t.styles.Assistant.Render("Lectern> "))
			_, _ = b.WriteString(t.markdown.Render(msg.Text))
			if len(msg.Sources) > 0 {
				_, _ = b.WriteString("\n")
				_, _ = b.WriteString(t.renderSources(msg.Sources))
			}
		case roleSystem:
			_, _ = b.WriteString(t.styles.System.Render(msg.Text))
		case roleError:
			_, _ = b.WriteString(t.styles.Error.Render("Error: " + msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	if t.state == StateThinking {
		_, _ = b.WriteString(t.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	t.viewport.SetContent(b.String())
}

// newChat resets the conversation: the session cell is cleared so the next
// question starts a fresh server-side session.
func (t *TUI) newChat() {
	if t.state == StateThinking {
		t.cancelQuery()
		t.state = StateInput
	}
	t.session.Reset()
	t.messages = nil
	t.addMessage(Message{Role: roleAssistant, Text: welcomeText})
	t.input.Reset()
	t.rebuildViewportContent()
	t.viewport.GotoTop()
}

// toggleTheme flips between dark and light, restyles everything, and
// persists the choice for the next run.
func (t *TUI) toggleTheme() {
	t.theme = t.theme.Toggle()
	t.styles = StylesFor(t.theme)
	t.markdown = newMarkdownRenderer(t.width, t.theme)
	if err := SaveTheme(t.theme); err != nil {
		t.addMessage(Message{Role: roleSystem, Text: "Theme not saved: " + err.Error()})
	}
	t.rebuildViewportContent()
}

// renderSeparator returns a horizontal line separator.
func (t *TUI) renderSeparator() string {
	width := t.width
	if width <= 0 {
		width = 80
	}
	return t.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (t *TUI) renderStatusBar() string {
	var bindings []key.Binding
	switch t.state {
	case StateInput:
		bindings = []key.Binding{
			t.keys.Submit, t.keys.NewChat, t.keys.Sources,
			t.keys.Theme, t.keys.Cancel, t.keys.Quit,
		}
	case StateThinking:
		bindings = []key.Binding{
			t.keys.EscCancel, t.keys.Cancel,
			t.keys.ScrollUp, t.keys.ScrollDown,
		}
	}
	return t.help.ShortHelpView(bindings)
}

// renderStats returns the banner stats line. A failed startup fetch shows
// the zero count plus an error placeholder instead of a bare zero.
func (t *TUI) renderStats() string {
	line := t.styles.RenderCourseStats(t.courseCount)
	if t.statsFailed {
		line += "\n" + t.styles.Error.Render("  Course stats unavailable")
	}
	return line
}

// courseStatsLine is the /courses command output.
func (t *TUI) courseStatsLine() string {
	var b strings.Builder
	_, _ = b.WriteString("Courses loaded: ")
	_, _ = b.WriteString(strconv.Itoa(t.courseCount))
	if t.statsFailed {
		_, _ = b.WriteString(" (course stats unavailable)")
	}
	for _, title := range t.courseTitles {
		_, _ = b.WriteString("\n  ")
		_, _ = b.WriteString(title)
	}
	return b.String()
}
