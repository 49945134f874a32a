package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lectern/lectern/internal/knowledge"
	"github.com/lectern/lectern/internal/log"
)

// OutlineToolName is the Genkit tool name for course outline lookups.
const OutlineToolName = "get_course_outline"

// OutlineToolDescription is shown to the model when the tool is offered.
const OutlineToolDescription = "Get the complete outline of a course including title, link, and all lessons"

// OutlineInput defines the arguments of the course outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
}

// CourseOutline returns a course's full lesson list after resolving a
// partial course name against the catalog.
type CourseOutline struct {
	store  *knowledge.Store
	logger log.Logger

	mu      sync.Mutex
	sources []string
}

// NewCourseOutline creates the course outline tool.
func NewCourseOutline(store *knowledge.Store, logger log.Logger) (*CourseOutline, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &CourseOutline{store: store, logger: logger}, nil
}

// Name implements Tool.
func (t *CourseOutline) Name() string { return OutlineToolName }

// Description implements Tool.
func (t *CourseOutline) Description() string { return OutlineToolDescription }

// Execute implements Tool for the generic dispatch path.
func (t *CourseOutline) Execute(ctx context.Context, args map[string]any) string {
	return t.Run(ctx, OutlineInput{CourseName: argString(args, "course_name")})
}

// Run resolves the course name and formats its outline for the model.
func (t *CourseOutline) Run(ctx context.Context, input OutlineInput) string {
	t.logger.Debug("fetching course outline", "course", input.CourseName)

	title, err := t.store.ResolveCourseName(ctx, input.CourseName)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err)
	}
	if title == "" {
		return fmt.Sprintf("No course found matching '%s'", input.CourseName)
	}

	c, err := t.store.GetCourse(ctx, title)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, lesson := range c.Lessons {
		fmt.Fprintf(&b, "  Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	source := c.Title
	if c.Link != "" {
		source = source + "|" + c.Link
	}
	t.mu.Lock()
	t.sources = []string{source}
	t.mu.Unlock()

	return strings.TrimRight(b.String(), "\n")
}

// LastSources implements Tool.
func (t *CourseOutline) LastSources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

// ResetSources implements Tool.
func (t *CourseOutline) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}
