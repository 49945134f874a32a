package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lectern/lectern/internal/log"
)

func TestCourseSearchValidation(t *testing.T) {
	if _, err := NewCourseSearch(nil, log.NewNop()); err == nil {
		t.Error("NewCourseSearch(nil store) should fail")
	}
	if _, err := NewCourseSearch(seededStore(t), nil); err == nil {
		t.Error("NewCourseSearch(nil logger) should fail")
	}
}

func TestCourseSearchRun(t *testing.T) {
	tool, err := NewCourseSearch(seededStore(t), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	got := tool.Run(context.Background(), SearchInput{Query: "servers"})
	if !strings.Contains(got, "[Introduction to MCP - Lesson ") {
		t.Errorf("Run() = %q, missing course and lesson header", got)
	}
	if !strings.Contains(got, "Servers expose tools") {
		t.Errorf("Run() = %q, missing chunk content", got)
	}

	sources := tool.LastSources()
	if len(sources) == 0 {
		t.Fatal("LastSources() is empty after a successful search")
	}
	for _, s := range sources {
		if !strings.HasPrefix(s, "Introduction to MCP - Lesson ") {
			t.Errorf("source = %q, want course and lesson label", s)
		}
		if !strings.Contains(s, "|https://example.com/mcp/") {
			t.Errorf("source = %q, want embedded lesson link", s)
		}
	}

	tool.ResetSources()
	if got := tool.LastSources(); got != nil {
		t.Errorf("LastSources() after reset = %v, want nil", got)
	}
}

func TestCourseSearchLessonFilter(t *testing.T) {
	tool, err := NewCourseSearch(seededStore(t), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	one := 1
	got := tool.Run(context.Background(), SearchInput{
		Query:        "servers",
		CourseName:   "Introduction to MCP",
		LessonNumber: &one,
	})
	if !strings.Contains(got, "[Introduction to MCP - Lesson 1]") {
		t.Errorf("Run() = %q, want lesson 1 header", got)
	}
	if strings.Contains(got, "Welcome to the course") {
		t.Errorf("Run() = %q, lesson filter leaked other lessons", got)
	}
}

func TestCourseSearchNoResults(t *testing.T) {
	tool, err := NewCourseSearch(seededStore(t), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	five := 5

	tests := []struct {
		name  string
		input SearchInput
		want  string
	}{
		{
			"lesson without content",
			SearchInput{Query: "anything", CourseName: "Introduction to MCP", LessonNumber: &five},
			"No relevant content found in course 'Introduction to MCP' in lesson 5.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tool.Run(context.Background(), tt.input); got != tt.want {
				t.Errorf("Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCourseSearchCourseNotFound(t *testing.T) {
	store, err := knowledgeEmpty(t)
	if err != nil {
		t.Fatal(err)
	}
	tool, err := NewCourseSearch(store, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	got := tool.Run(context.Background(), SearchInput{Query: "anything", CourseName: "Ghost Course"})
	want := "No course found matching 'Ghost Course'"
	if got != want {
		t.Errorf("Run() = %q, want %q", got, want)
	}
}

func TestCourseSearchExecuteArgs(t *testing.T) {
	tool, err := NewCourseSearch(seededStore(t), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	// JSON decoding yields float64 for numbers.
	got := tool.Execute(context.Background(), map[string]any{
		"query":         "servers",
		"course_name":   "Introduction to MCP",
		"lesson_number": float64(1),
	})
	if !strings.Contains(got, "[Introduction to MCP - Lesson 1]") {
		t.Errorf("Execute() = %q, want lesson 1 header", got)
	}
}

func TestEmptyMessage(t *testing.T) {
	three := 3
	tests := []struct {
		name       string
		courseName string
		lesson     *int
		want       string
	}{
		{"no filters", "", nil, "No relevant content found."},
		{"course only", "MCP", nil, "No relevant content found in course 'MCP'."},
		{"lesson only", "", &three, "No relevant content found in lesson 3."},
		{"both", "MCP", &three, "No relevant content found in course 'MCP' in lesson 3."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emptyMessage(tt.courseName, tt.lesson); got != tt.want {
				t.Errorf("emptyMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
