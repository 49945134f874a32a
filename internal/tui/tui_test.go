package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	"go.uber.org/goleak"

	"github.com/lectern/lectern/internal/client"
)

// goleakOptions returns standard goleak options for all TUI tests.
func goleakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*http2clientConnReadLoop).run"),
	}
}

// newTestTUI creates a TUI with properly initialized components for testing.
func newTestTUI(t *testing.T) *TUI {
	t.Helper()

	api, err := client.New("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	ta := textarea.New()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	return &TUI{
		state:    StateInput,
		input:    ta,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		history:  make([]string, 0),
		theme:    ThemeDark,
		styles:   StylesFor(ThemeDark),
		markdown: newMarkdownRenderer(80, ThemeDark),
		session:  &client.SessionCell{},
		api:      api,
		keys:     newKeyMap(),
		ctx:      context.Background(),
	}
}

func TestNew_ErrorOnNilClient(t *testing.T) {
	_, err := New(context.Background(), nil)
	if err == nil {
		t.Error("Expected error for nil client")
	}
}

func TestNew_ErrorOnNilContext(t *testing.T) {
	api, err := client.New("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	//lint:ignore SA1012 intentionally testing nil context handling
	_, err = New(nil, api) //nolint:staticcheck
	if err == nil {
		t.Error("Expected error for nil context")
	}
}

func TestTUI_SubmitWhitespaceIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.input.SetValue("   \n  ")

	_, cmd := tui.handleSubmit()
	if cmd != nil {
		t.Error("Whitespace submit should not produce a command")
	}
	if tui.state != StateInput {
		t.Errorf("State = %v, want StateInput", tui.state)
	}
	if len(tui.messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(tui.messages))
	}
}

func TestTUI_SubmitStartsQuery(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.input.SetValue("What is MCP?")

	_, cmd := tui.handleSubmit()
	if cmd == nil {
		t.Fatal("Submit should produce a command")
	}
	if tui.state != StateThinking {
		t.Errorf("State = %v, want StateThinking", tui.state)
	}
	if len(tui.messages) != 1 || tui.messages[0].Role != roleUser {
		t.Fatalf("Expected one user message, got %+v", tui.messages)
	}
	if tui.input.Value() != "" {
		t.Error("Input should be cleared after submit")
	}
	tui.cancelQuery()
}

func TestTUI_SubmitIgnoredWhileThinking(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.state = StateThinking
	tui.input.SetValue("second question")

	_, cmd := tui.handleSubmit()
	if cmd != nil {
		t.Error("Submit during StateThinking should be ignored")
	}
	if len(tui.messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(tui.messages))
	}
	if tui.input.Value() != "second question" {
		t.Error("Input should be preserved while a query is in flight")
	}
}

func TestTUI_QueryResultAdoptsSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.state = StateThinking

	model, cmd := tui.Update(queryResultMsg{result: client.QueryResult{
		Answer:    "MCP is a protocol.",
		Sources:   []string{"Intro to MCP - Lesson 1"},
		SessionID: "session-1",
	}})
	tui = model.(*TUI)

	if tui.state != StateInput {
		t.Errorf("State = %v, want StateInput", tui.state)
	}
	if cmd == nil {
		t.Error("Result should re-focus the input")
	}
	if got := tui.session.Get(); got != "session-1" {
		t.Errorf("Session = %q, want session-1", got)
	}

	last := tui.messages[len(tui.messages)-1]
	if last.Role != roleAssistant || last.Text != "MCP is a protocol." {
		t.Errorf("Unexpected assistant message: %+v", last)
	}
	if len(last.Sources) != 1 {
		t.Errorf("Expected one source, got %v", last.Sources)
	}

	// A later result with a different session ID must not replace the
	// adopted one.
	model, _ = tui.Update(queryResultMsg{result: client.QueryResult{
		Answer:    "Follow up.",
		SessionID: "session-2",
	}})
	tui = model.(*TUI)
	if got := tui.session.Get(); got != "session-1" {
		t.Errorf("Session = %q, want session-1 after second result", got)
	}
}

func TestTUI_QueryErrorShowsErrorMessage(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.state = StateThinking

	model, cmd := tui.Update(queryErrorMsg{err: errors.New("API error (500): generation failed")})
	tui = model.(*TUI)

	if tui.state != StateInput {
		t.Errorf("State = %v, want StateInput", tui.state)
	}
	if cmd == nil {
		t.Error("Error should re-focus the input")
	}

	last := tui.messages[len(tui.messages)-1]
	if last.Role != roleError {
		t.Errorf("Role = %q, want error", last.Role)
	}
	if !strings.Contains(last.Text, "generation failed") {
		t.Errorf("Error text = %q", last.Text)
	}
}

func TestTUI_QueryErrorCanceled(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.state = StateThinking

	model, _ := tui.Update(queryErrorMsg{err: context.Canceled})
	tui = model.(*TUI)

	last := tui.messages[len(tui.messages)-1]
	if last.Role != roleSystem || last.Text != "(Canceled)" {
		t.Errorf("Unexpected message: %+v", last)
	}
}

func TestTUI_StatsMsg(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)

	model, _ := tui.Update(statsMsg{stats: client.CourseStats{
		TotalCourses: 3,
		CourseTitles: []string{"A", "B", "C"},
	}})
	tui = model.(*TUI)

	if tui.courseCount != 3 {
		t.Errorf("courseCount = %d, want 3", tui.courseCount)
	}

	line := tui.courseStatsLine()
	if !strings.Contains(line, "Courses loaded: 3") {
		t.Errorf("Stats line = %q", line)
	}
	for _, title := range []string{"A", "B", "C"} {
		if !strings.Contains(line, title) {
			t.Errorf("Stats line missing %q: %q", title, line)
		}
	}
}

func TestTUI_StatsFetchFailureShowsPlaceholder(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)

	model, _ := tui.Update(statsMsg{err: errors.New("connection refused")})
	tui = model.(*TUI)

	if tui.courseCount != 0 {
		t.Errorf("courseCount = %d, want 0", tui.courseCount)
	}

	// The banner falls back to zero plus a visible placeholder.
	stats := tui.renderStats()
	if !strings.Contains(stats, "Course materials loaded: 0") {
		t.Errorf("Stats banner = %q", stats)
	}
	if !strings.Contains(stats, "Course stats unavailable") {
		t.Errorf("Stats banner missing error placeholder: %q", stats)
	}
	if !strings.Contains(tui.courseStatsLine(), "course stats unavailable") {
		t.Errorf("/courses output missing placeholder: %q", tui.courseStatsLine())
	}

	// A later successful fetch clears the placeholder.
	model, _ = tui.Update(statsMsg{stats: client.CourseStats{TotalCourses: 1}})
	tui = model.(*TUI)
	if strings.Contains(tui.renderStats(), "unavailable") {
		t.Errorf("Placeholder should clear after success: %q", tui.renderStats())
	}
}

func TestTUI_NewChatResetsSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.session.Adopt("old-session")
	tui.addMessage(Message{Role: roleUser, Text: "earlier question"})
	tui.addMessage(Message{Role: roleAssistant, Text: "earlier answer"})

	tui.newChat()

	if got := tui.session.Get(); got != "" {
		t.Errorf("Session = %q, want empty after new chat", got)
	}
	if len(tui.messages) != 1 {
		t.Fatalf("Expected single welcome message, got %d", len(tui.messages))
	}
	if tui.messages[0].Text != welcomeText {
		t.Errorf("Unexpected welcome message: %q", tui.messages[0].Text)
	}

	tui.session.Adopt("new-session")
	if got := tui.session.Get(); got != "new-session" {
		t.Errorf("Session = %q, want new-session", got)
	}
}

func TestTUI_HandleSlashCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tests := []struct {
		name     string
		cmd      string
		wantExit bool
		wantMsgs int // messages added on top of the pre-populated one
	}{
		{"help", "/help", false, 1},
		{"courses", "/courses", false, 1},
		{"exit", "/exit", true, 0},
		{"quit", "/quit", true, 0},
		{"unknown", "/unknown", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tui := newTestTUI(t)
			tui.messages = []Message{{Role: roleUser, Text: "hello"}}

			model, cmd := tui.handleSlashCommand(tt.cmd)
			result := model.(*TUI)

			if tt.wantExit {
				if cmd == nil {
					t.Error("Expected quit command for exit")
				}
				return
			}
			if len(result.messages) != 1+tt.wantMsgs {
				t.Errorf("Expected %d messages, got %d", 1+tt.wantMsgs, len(result.messages))
			}
		})
	}
}

func TestTUI_SlashNewResetsConversation(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.session.Adopt("old")
	tui.messages = []Message{{Role: roleUser, Text: "hello"}}

	model, _ := tui.handleSlashCommand(cmdNew)
	result := model.(*TUI)

	if result.session.Get() != "" {
		t.Error("Session should be reset")
	}
	if len(result.messages) != 1 || result.messages[0].Text != welcomeText {
		t.Errorf("Expected single welcome message, got %+v", result.messages)
	}
}

func TestTUI_HistoryNavigation(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	tui.history = []string{"first", "second", "third"}
	tui.historyIdx = 3

	tests := []struct {
		delta    int
		expected string
	}{
		{-1, "third"},
		{-1, "second"},
		{-1, "first"},
		{-1, "first"}, // Should stay at first
		{1, "second"},
		{1, "third"},
		{1, ""}, // Past end = empty
		{1, ""}, // Should stay empty
	}

	for i, tt := range tests {
		model, _ := tui.navigateHistory(tt.delta)
		tui = model.(*TUI)
		if tui.input.Value() != tt.expected {
			t.Errorf("Step %d: got %q, want %q", i, tui.input.Value(), tt.expected)
		}
	}
}

func TestTUI_AppendFollowsScrollPosition(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	for i := 0; i < 40; i++ {
		tui.addMessage(Message{Role: roleUser, Text: "filler"})
	}
	tui.rebuildViewportContent()
	tui.viewport.GotoBottom()

	// At the bottom, an appended answer keeps the view pinned.
	model, _ := tui.Update(queryResultMsg{result: client.QueryResult{Answer: "pinned"}})
	tui = model.(*TUI)
	if !tui.viewport.AtBottom() {
		t.Error("Viewport should stay pinned when already at the bottom")
	}

	// Scrolled up, an appended answer must not yank the view down.
	tui.viewport.GotoTop()
	tui.state = StateThinking
	model, _ = tui.Update(queryResultMsg{result: client.QueryResult{Answer: "not pinned"}})
	tui = model.(*TUI)
	if tui.viewport.AtBottom() {
		t.Error("Viewport should keep the scrolled-up position on append")
	}
}

func TestTUI_AddMessageBound(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tui := newTestTUI(t)
	for i := 0; i < maxMessages+10; i++ {
		tui.addMessage(Message{Role: roleUser, Text: "msg"})
	}
	if len(tui.messages) != maxMessages {
		t.Errorf("Messages = %d, want %d", len(tui.messages), maxMessages)
	}
}
