// Package rag orchestrates document ingestion, retrieval-backed generation,
// and session history into a single query interface.
package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generate"
	"github.com/lectern/lectern/internal/knowledge"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/session"
)

// queryPrompt frames every user question for the model.
const queryPrompt = "Answer this question about course materials: %s"

// documentExtensions lists the course document types picked up from a folder.
var documentExtensions = []string{".txt", ".pdf", ".docx"}

// Analytics summarizes the indexed course catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System ties together the document processor, knowledge store, generator,
// and session manager.
type System struct {
	processor *course.Processor
	store     *knowledge.Store
	generator *generate.Generator
	sessions  *session.Manager
	logger    log.Logger
}

// Config contains required parameters for the System.
type Config struct {
	Processor *course.Processor
	Store     *knowledge.Store
	Generator *generate.Generator
	Sessions  *session.Manager
	Logger    log.Logger
}

// New creates a System.
func New(cfg Config) (*System, error) {
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &System{
		processor: cfg.Processor,
		store:     cfg.Store,
		generator: cfg.Generator,
		sessions:  cfg.Sessions,
		logger:    cfg.Logger,
	}, nil
}

// Query answers a user question. When sessionID is non-empty, prior
// exchanges inform the answer and the new exchange is recorded.
// Returns the answer and the sources the retrieval tools consulted.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []string, error) {
	prompt := fmt.Sprintf(queryPrompt, query)

	var history string
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	answer, err := s.generator.Respond(ctx, prompt, history)
	if err != nil {
		return "", nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := s.generator.Sources()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, query, answer)
	}
	return answer, sources, nil
}

// CreateSession starts a new conversation session.
func (s *System) CreateSession() string {
	return s.sessions.Create()
}

// AddCourseDocument processes and indexes a single course document.
func (s *System) AddCourseDocument(ctx context.Context, path string) (*course.Course, int, error) {
	c, chunks, err := s.processor.ProcessFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("processing %s: %w", path, err)
	}

	if err := s.store.AddCourseMetadata(ctx, c); err != nil {
		return nil, 0, err
	}
	if err := s.store.AddCourseContent(ctx, chunks); err != nil {
		return nil, 0, err
	}
	return c, len(chunks), nil
}

// AddCourseFolder indexes every course document in a folder. Courses whose
// titles are already in the catalog are skipped unless clearExisting wipes
// the store first. Returns the number of courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error) {
	if clearExisting {
		s.logger.Info("clearing existing course data")
		if err := s.store.Clear(); err != nil {
			return 0, 0, fmt.Errorf("clearing store: %w", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading course folder: %w", err)
	}

	existing, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !isCourseDocument(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		c, chunks, err := s.processor.ProcessFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable course document", "path", path, "error", err)
			continue
		}
		if slices.Contains(existing, c.Title) {
			s.logger.Debug("course already indexed", "course", c.Title)
			continue
		}

		if err := s.store.AddCourseMetadata(ctx, c); err != nil {
			return coursesAdded, chunksAdded, err
		}
		if err := s.store.AddCourseContent(ctx, chunks); err != nil {
			return coursesAdded, chunksAdded, err
		}

		existing = append(existing, c.Title)
		coursesAdded++
		chunksAdded += len(chunks)
		s.logger.Info("indexed course", "course", c.Title, "chunks", len(chunks))
	}
	return coursesAdded, chunksAdded, nil
}

// Analytics reports the current catalog contents.
func (s *System) Analytics(ctx context.Context) (Analytics, error) {
	titles, err := s.store.ExistingCourseTitles(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		TotalCourses: s.store.CourseCount(),
		CourseTitles: titles,
	}, nil
}

func isCourseDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(documentExtensions, ext)
}
