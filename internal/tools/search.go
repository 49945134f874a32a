package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/lectern/lectern/internal/knowledge"
	"github.com/lectern/lectern/internal/log"
)

// SearchToolName is the Genkit tool name for course content search.
const SearchToolName = "search_course_content"

// SearchToolDescription is shown to the model when the tool is offered.
const SearchToolDescription = "Search course materials with smart course name matching and lesson filtering"

// SearchInput defines the arguments of the course content search tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// CourseSearch searches course content and records the sources of each hit.
type CourseSearch struct {
	store  *knowledge.Store
	logger log.Logger

	mu      sync.Mutex
	sources []string
}

// NewCourseSearch creates the course content search tool.
func NewCourseSearch(store *knowledge.Store, logger log.Logger) (*CourseSearch, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &CourseSearch{store: store, logger: logger}, nil
}

// Name implements Tool.
func (t *CourseSearch) Name() string { return SearchToolName }

// Description implements Tool.
func (t *CourseSearch) Description() string { return SearchToolDescription }

// Execute implements Tool for the generic dispatch path.
func (t *CourseSearch) Execute(ctx context.Context, args map[string]any) string {
	input := SearchInput{
		Query:      argString(args, "query"),
		CourseName: argString(args, "course_name"),
	}
	if n, ok := argInt(args, "lesson_number"); ok {
		input.LessonNumber = &n
	}
	return t.Run(ctx, input)
}

// Run performs the search and formats results for the model.
func (t *CourseSearch) Run(ctx context.Context, input SearchInput) string {
	t.logger.Debug("searching course content",
		"query", input.Query, "course", input.CourseName)

	opts := []knowledge.SearchOption{}
	if input.CourseName != "" {
		opts = append(opts, knowledge.WithCourseName(input.CourseName))
	}
	if input.LessonNumber != nil {
		opts = append(opts, knowledge.WithLessonNumber(*input.LessonNumber))
	}

	results := t.store.Search(ctx, input.Query, opts...)
	if results.Error != "" {
		return results.Error
	}
	if results.IsEmpty() {
		return emptyMessage(input.CourseName, input.LessonNumber)
	}
	return t.format(ctx, results)
}

// emptyMessage describes an empty result in terms of the applied filters.
func emptyMessage(courseName string, lessonNumber *int) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if courseName != "" {
		fmt.Fprintf(&b, " in course '%s'", courseName)
	}
	if lessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *lessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

// format renders each hit with a course and lesson header and records one
// source per hit. Sources carry a lesson link, when known, as "Label|link".
func (t *CourseSearch) format(ctx context.Context, results knowledge.SearchResults) string {
	formatted := make([]string, 0, len(results.Documents))
	sources := make([]string, 0, len(results.Documents))

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		courseTitle := meta["course_title"]
		if courseTitle == "" {
			courseTitle = "unknown"
		}

		header := fmt.Sprintf("[%s]", courseTitle)
		source := courseTitle
		if lesson := meta["lesson_number"]; lesson != "" {
			header = fmt.Sprintf("[%s - Lesson %s]", courseTitle, lesson)
			source = fmt.Sprintf("%s - Lesson %s", courseTitle, lesson)
			if n, err := strconv.Atoi(lesson); err == nil {
				if link := t.store.LessonLink(ctx, courseTitle, n); link != "" {
					source = source + "|" + link
				}
			}
		}

		formatted = append(formatted, header+"\n"+doc)
		sources = append(sources, source)
	}

	t.mu.Lock()
	t.sources = sources
	t.mu.Unlock()

	return strings.Join(formatted, "\n\n")
}

// LastSources implements Tool.
func (t *CourseSearch) LastSources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sources
}

// ResetSources implements Tool.
func (t *CourseSearch) ResetSources() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = nil
}

// argString reads a string argument from a generic argument map.
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// argInt reads an integer argument, accepting the float64 form JSON decoding
// produces.
func argInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
