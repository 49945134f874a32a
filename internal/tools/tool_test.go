package tools

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/knowledge"
	"github.com/lectern/lectern/internal/log"
)

// stubEmbedder implements ai.Embedder with deterministic hash-derived vectors.
type stubEmbedder struct{}

func (stubEmbedder) Name() string            { return "stub-embedder" }
func (stubEmbedder) Register(r api.Registry) {}

func (stubEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	var text string
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		text = req.Input[0].Content[0].Text
	}
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(sum[i])/255 + 0.01
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: vec}}}, nil
}

// stubTool is a minimal Tool for Manager tests.
type stubTool struct {
	name    string
	result  string
	sources []string
	calls   int
}

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "stub" }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) string {
	s.calls++
	return s.result
}
func (s *stubTool) LastSources() []string { return s.sources }
func (s *stubTool) ResetSources()         { s.sources = nil }

func seededStore(t *testing.T) *knowledge.Store {
	t.Helper()
	store, err := knowledge.New("", stubEmbedder{}, 5, log.NewNop())
	if err != nil {
		t.Fatalf("knowledge.New() error = %v", err)
	}

	ctx := context.Background()
	c := &course.Course{
		Title:      "Introduction to MCP",
		Link:       "https://example.com/mcp",
		Instructor: "Ada Lovelace",
		Lessons: []course.Lesson{
			{Number: 0, Title: "Welcome", Link: "https://example.com/mcp/0"},
			{Number: 1, Title: "Servers", Link: "https://example.com/mcp/1"},
		},
	}
	if err := store.AddCourseMetadata(ctx, c); err != nil {
		t.Fatal(err)
	}

	one := 1
	zero := 0
	chunks := []course.Chunk{
		{Content: "Welcome to the course", CourseTitle: c.Title, LessonNumber: &zero, Index: 0},
		{Content: "Servers expose tools", CourseTitle: c.Title, LessonNumber: &one, Index: 1},
	}
	if err := store.AddCourseContent(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	return store
}

func knowledgeEmpty(t *testing.T) (*knowledge.Store, error) {
	t.Helper()
	return knowledge.New("", stubEmbedder{}, 5, log.NewNop())
}

func TestManagerRegister(t *testing.T) {
	m := NewManager()

	if err := m.Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}
	if err := m.Register(&stubTool{name: ""}); err == nil {
		t.Error("Register with empty name should fail")
	}
	if err := m.Register(&stubTool{name: "alpha"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Register(&stubTool{name: "alpha"}); err == nil {
		t.Error("Register with duplicate name should fail")
	}
}

func TestManagerExecute(t *testing.T) {
	m := NewManager()
	tool := &stubTool{name: "alpha", result: "done"}
	if err := m.Register(tool); err != nil {
		t.Fatal(err)
	}

	if got := m.Execute(context.Background(), "alpha", nil); got != "done" {
		t.Errorf("Execute() = %q, want %q", got, "done")
	}
	if tool.calls != 1 {
		t.Errorf("calls = %d, want 1", tool.calls)
	}
}

func TestManagerExecuteUnknown(t *testing.T) {
	m := NewManager()

	got := m.Execute(context.Background(), "missing", nil)
	want := "Tool 'missing' not found"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}
}

func TestManagerSources(t *testing.T) {
	m := NewManager()
	first := &stubTool{name: "alpha"}
	second := &stubTool{name: "beta", sources: []string{"Course X - Lesson 1"}}
	if err := m.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(second); err != nil {
		t.Fatal(err)
	}

	got := m.LastSources()
	if len(got) != 1 || got[0] != "Course X - Lesson 1" {
		t.Errorf("LastSources() = %v", got)
	}

	m.ResetSources()
	if sources := m.LastSources(); sources != nil {
		t.Errorf("LastSources() after reset = %v, want nil", sources)
	}
}
