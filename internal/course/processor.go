package course

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lectern/lectern/internal/log"
)

// Document header prefixes. A course transcript starts with up to three
// header lines, then lesson sections introduced by "Lesson N: Title" markers,
// each optionally followed by a "Lesson Link:" line.
const (
	headerTitle      = "Course Title:"
	headerLink       = "Course Link:"
	headerInstructor = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Processor parses course transcripts and splits them into overlapping,
// sentence-aligned chunks.
//
// ChunkSize is the target size in characters; ChunkOverlap is the number of
// characters carried over between consecutive chunks, rounded to whole
// sentences.
type Processor struct {
	chunkSize    int
	chunkOverlap int
	logger       log.Logger
}

// NewProcessor creates a Processor. overlap must be smaller than size.
func NewProcessor(size, overlap int, logger log.Logger) (*Processor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Processor{chunkSize: size, chunkOverlap: overlap, logger: logger}, nil
}

// ProcessFile reads and parses a course transcript from disk.
// Files that are not valid UTF-8 are read with invalid sequences replaced.
func (p *Processor) ProcessFile(path string) (*Course, []Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading course document: %w", err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
		p.logger.Warn("course document contains invalid UTF-8, replaced", "path", path)
	}

	return p.Process(text, path)
}

// Process parses a course transcript. source is used only for error context.
func (p *Processor) Process(text, source string) (*Course, []Chunk, error) {
	lines := strings.Split(text, "\n")

	c := &Course{}
	// Header lines may appear in any order within the leading block.
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, headerTitle):
			c.Title = strings.TrimSpace(strings.TrimPrefix(line, headerTitle))
		case strings.HasPrefix(line, headerLink):
			c.Link = strings.TrimSpace(strings.TrimPrefix(line, headerLink))
		case strings.HasPrefix(line, headerInstructor):
			c.Instructor = strings.TrimSpace(strings.TrimPrefix(line, headerInstructor))
		case line == "":
			continue
		default:
			// First non-header line ends the header block.
			goto body
		}
	}

body:
	if c.Title == "" {
		return nil, nil, fmt.Errorf("course document %q has no %q header", source, headerTitle)
	}

	var chunks []Chunk
	chunkIndex := 0

	// Content accumulated for the current section. A nil lesson number means
	// course-level content before the first lesson marker.
	var sectionLines []string
	var currentLesson *int

	flush := func() {
		content := strings.TrimSpace(strings.Join(sectionLines, "\n"))
		sectionLines = nil
		if content == "" {
			return
		}
		for j, piece := range p.ChunkText(content) {
			// Only the first chunk of a section carries the context
			// prefix; the rest stay verbatim.
			if j == 0 {
				piece = p.contextualize(c.Title, currentLesson, piece)
			}
			chunks = append(chunks, Chunk{
				Content:      piece,
				CourseTitle:  c.Title,
				LessonNumber: currentLesson,
				Index:        chunkIndex,
			})
			chunkIndex++
		}
	}

	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if m := lessonMarker.FindStringSubmatch(trimmed); m != nil {
			flush()
			num, err := strconv.Atoi(m[1])
			if err != nil {
				// Regex guarantees digits; overflow is the only failure mode.
				return nil, nil, fmt.Errorf("lesson number %q in %q: %w", m[1], source, err)
			}
			lesson := Lesson{Number: num, Title: strings.TrimSpace(m[2])}

			// Optional "Lesson Link:" on the following line.
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, lessonLinkPrefix) {
					lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
					i++
				}
			}

			c.Lessons = append(c.Lessons, lesson)
			n := num
			currentLesson = &n
			continue
		}

		sectionLines = append(sectionLines, line)
	}
	flush()

	p.logger.Debug("processed course document",
		"source", source,
		"course", c.Title,
		"lessons", len(c.Lessons),
		"chunks", len(chunks))

	return c, chunks, nil
}

// contextualize prefixes a section's first chunk so that search hits remain
// attributable even when read in isolation. Lesson sections get the lesson
// number; course-level content before the first lesson gets the title.
func (p *Processor) contextualize(title string, lesson *int, chunk string) string {
	if lesson == nil {
		return fmt.Sprintf("Course %s content: %s", title, chunk)
	}
	return fmt.Sprintf("Lesson %d content: %s", *lesson, chunk)
}

// ChunkText splits text into chunks of roughly chunkSize characters,
// breaking on sentence boundaries and carrying chunkOverlap characters
// (rounded up to whole sentences) between consecutive chunks.
func (p *Processor) ChunkText(text string) []string {
	sentences := splitSentences(normalizeWhitespace(text))
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(sentences) {
		size := 0
		end := start
		for end < len(sentences) {
			sentenceLen := len(sentences[end])
			if end > start {
				sentenceLen++ // joining space
			}
			if size+sentenceLen > p.chunkSize && end > start {
				break
			}
			size += sentenceLen
			end++
		}

		chunks = append(chunks, strings.Join(sentences[start:end], " "))

		if end >= len(sentences) {
			break
		}

		// Walk back whole sentences until the overlap budget is covered.
		next := end
		overlap := 0
		for next > start+1 && overlap < p.chunkOverlap {
			next--
			overlap += len(sentences[next]) + 1
		}
		start = next
	}

	return chunks
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeWhitespace collapses all whitespace runs to single spaces.
func normalizeWhitespace(text string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
}

// splitSentences splits text after terminal punctuation (. ! ?) followed by
// whitespace. Text without terminal punctuation is returned as one sentence.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		// Consume a run of terminal punctuation.
		for i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
			i++
		}
		if i+1 < len(runes) && runes[i+1] == ' ' {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 2
			i++
		}
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
