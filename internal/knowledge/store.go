// Package knowledge manages the embedded vector store for course materials.
//
// Two collections back the store:
//   - course_catalog: one record per course, used for semantic resolution of
//     user-supplied course names and for outline lookups
//   - course_content: sentence-aligned chunks of course material, used for
//     content search with optional course and lesson filters
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/log"
)

// Collection names inside the chromem database.
const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Metadata keys used on catalog and content records.
const (
	metaTitle        = "title"
	metaInstructor   = "instructor"
	metaCourseLink   = "course_link"
	metaLessonsJSON  = "lessons_json"
	metaLessonCount  = "lesson_count"
	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
)

// addConcurrency bounds parallel embedding calls during bulk inserts.
const addConcurrency = 4

// Store manages course metadata and content with vector search capabilities.
// It handles embedding generation and similarity search using an embedded
// chromem database, persisted on disk when a path is configured.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db         *chromem.DB
	catalog    *chromem.Collection
	content    *chromem.Collection
	embed      chromem.EmbeddingFunc
	maxResults int
	logger     log.Logger
}

// New creates a Store. path selects the on-disk location of the database;
// an empty path keeps everything in memory (used in tests).
func New(path string, embedder ai.Embedder, maxResults int, logger log.Logger) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening vector store at %q: %w", path, err)
		}
	}

	s := &Store{
		db:         db,
		embed:      NewEmbeddingFunc(embedder),
		maxResults: maxResults,
		logger:     logger,
	}
	if err := s.openCollections(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openCollections() error {
	catalog, err := s.db.GetOrCreateCollection(catalogCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("opening %s collection: %w", catalogCollection, err)
	}
	content, err := s.db.GetOrCreateCollection(contentCollection, nil, s.embed)
	if err != nil {
		return fmt.Errorf("opening %s collection: %w", contentCollection, err)
	}
	s.catalog = catalog
	s.content = content
	return nil
}

// AddCourseMetadata records a course in the catalog. The course title serves
// as both document ID and content so that name resolution embeds the title.
func (s *Store) AddCourseMetadata(ctx context.Context, c *course.Course) error {
	if c == nil || c.Title == "" {
		return fmt.Errorf("course with a title is required")
	}

	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lessons for %q: %w", c.Title, err)
	}

	doc := chromem.Document{
		ID:      c.Title,
		Content: c.Title,
		Metadata: map[string]string{
			metaTitle:       c.Title,
			metaInstructor:  c.Instructor,
			metaCourseLink:  c.Link,
			metaLessonsJSON: string(lessonsJSON),
			metaLessonCount: strconv.Itoa(len(c.Lessons)),
		},
	}

	if err := s.catalog.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("adding course %q to catalog: %w", c.Title, err)
	}

	s.logger.Debug("added course to catalog", "course", c.Title, "lessons", len(c.Lessons))
	return nil
}

// AddCourseContent indexes content chunks. Chunk IDs are derived from the
// course title and chunk index, so re-indexing a course overwrites in place.
func (s *Store) AddCourseContent(ctx context.Context, chunks []course.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, ch := range chunks {
		metadata := map[string]string{
			metaCourseTitle: ch.CourseTitle,
			metaChunkIndex:  strconv.Itoa(ch.Index),
		}
		if ch.LessonNumber != nil {
			metadata[metaLessonNumber] = strconv.Itoa(*ch.LessonNumber)
		}
		docs = append(docs, chromem.Document{
			ID:       chunkID(ch.CourseTitle, ch.Index),
			Content:  ch.Content,
			Metadata: metadata,
		})
	}

	if err := s.content.AddDocuments(ctx, docs, addConcurrency); err != nil {
		return fmt.Errorf("adding course content: %w", err)
	}

	s.logger.Debug("added course content", "chunks", len(docs))
	return nil
}

// chunkID builds a stable content document ID.
func chunkID(title string, index int) string {
	return strings.ReplaceAll(title, " ", "_") + "_" + strconv.Itoa(index)
}

// Search performs semantic search over course content.
//
// A course name, when given, is first resolved against the catalog; an
// unresolvable name yields a result carrying "No course found matching ...".
// Store failures yield a result carrying "Search error: ...". Both cases are
// reported through SearchResults.Error rather than a Go error so that tool
// handlers can surface them verbatim to the model.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) SearchResults {
	cfg := buildSearchConfig(s.maxResults, opts)

	where := make(map[string]string)
	if cfg.courseName != "" {
		title, err := s.ResolveCourseName(ctx, cfg.courseName)
		if err != nil {
			return errorResults(fmt.Sprintf("Search error: %v", err))
		}
		if title == "" {
			return errorResults(fmt.Sprintf("No course found matching '%s'", cfg.courseName))
		}
		where[metaCourseTitle] = title
	}
	if cfg.lessonNumber != nil {
		where[metaLessonNumber] = strconv.Itoa(*cfg.lessonNumber)
	}

	// chromem rejects nResults larger than the collection size.
	limit := min(cfg.limit, s.content.Count())
	if limit <= 0 {
		return SearchResults{}
	}

	if len(where) == 0 {
		where = nil
	}
	results, err := s.content.Query(ctx, query, limit, where, nil)
	if err != nil {
		return errorResults(fmt.Sprintf("Search error: %v", err))
	}

	out := SearchResults{
		Documents: make([]string, 0, len(results)),
		Metadata:  make([]map[string]string, 0, len(results)),
	}
	for _, r := range results {
		out.Documents = append(out.Documents, r.Content)
		out.Metadata = append(out.Metadata, r.Metadata)
	}
	return out
}

// ResolveCourseName finds the best-matching course title for a partial or
// informal course name using vector similarity over the catalog.
// Returns "" when the catalog is empty.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	if s.catalog.Count() == 0 {
		return "", nil
	}

	results, err := s.catalog.Query(ctx, name, 1, nil, nil)
	if err != nil {
		return "", fmt.Errorf("resolving course name %q: %w", name, err)
	}
	if len(results) == 0 {
		return "", nil
	}
	return results[0].Metadata[metaTitle], nil
}

// GetCourse returns the catalog entry for an exact course title.
func (s *Store) GetCourse(ctx context.Context, title string) (*course.Course, error) {
	doc, err := s.catalog.GetByID(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("course %q not found: %w", title, err)
	}

	c := &course.Course{
		Title:      doc.Metadata[metaTitle],
		Instructor: doc.Metadata[metaInstructor],
		Link:       doc.Metadata[metaCourseLink],
	}
	if raw := doc.Metadata[metaLessonsJSON]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Lessons); err != nil {
			return nil, fmt.Errorf("parsing lessons for %q: %w", title, err)
		}
	}
	return c, nil
}

// CourseLink returns the course link for an exact title, or "" when unknown.
func (s *Store) CourseLink(ctx context.Context, title string) string {
	c, err := s.GetCourse(ctx, title)
	if err != nil {
		return ""
	}
	return c.Link
}

// LessonLink returns the link of one lesson of a course, or "" when unknown.
func (s *Store) LessonLink(ctx context.Context, title string, lessonNumber int) string {
	c, err := s.GetCourse(ctx, title)
	if err != nil {
		return ""
	}
	return c.LessonLink(lessonNumber)
}

// ExistingCourseTitles lists every course title in the catalog.
//
// chromem has no document enumeration API, so this issues a catalog-wide
// query with nResults equal to the collection size.
func (s *Store) ExistingCourseTitles(ctx context.Context) ([]string, error) {
	count := s.catalog.Count()
	if count == 0 {
		return nil, nil
	}

	results, err := s.catalog.Query(ctx, "course", count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing course titles: %w", err)
	}

	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.Metadata[metaTitle])
	}
	return titles, nil
}

// CourseCount returns the number of courses in the catalog.
func (s *Store) CourseCount() int {
	return s.catalog.Count()
}

// Clear removes all catalog and content data and recreates the collections.
func (s *Store) Clear() error {
	if err := s.db.DeleteCollection(catalogCollection); err != nil {
		return fmt.Errorf("clearing %s: %w", catalogCollection, err)
	}
	if err := s.db.DeleteCollection(contentCollection); err != nil {
		return fmt.Errorf("clearing %s: %w", contentCollection, err)
	}
	return s.openCollections()
}
