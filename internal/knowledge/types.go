package knowledge

// SearchResults holds the outcome of a content search.
// Error carries a user-facing message when the search could not be performed;
// an empty result set with an empty Error means nothing matched.
type SearchResults struct {
	Documents []string
	Metadata  []map[string]string
	Error     string
}

// IsEmpty reports whether the search returned no documents.
func (r SearchResults) IsEmpty() bool {
	return len(r.Documents) == 0
}

// errorResults builds a SearchResults carrying only an error message.
func errorResults(msg string) SearchResults {
	return SearchResults{Error: msg}
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	courseName   string
	lessonNumber *int
	limit        int
}

// WithCourseName restricts the search to one course. The name is resolved
// semantically against the catalog, so partial titles work.
func WithCourseName(name string) SearchOption {
	return func(c *searchConfig) {
		c.courseName = name
	}
}

// WithLessonNumber restricts the search to one lesson.
func WithLessonNumber(n int) SearchOption {
	return func(c *searchConfig) {
		c.lessonNumber = &n
	}
}

// WithLimit overrides the store's default maximum result count.
func WithLimit(limit int) SearchOption {
	return func(c *searchConfig) {
		if limit > 0 {
			c.limit = limit
		}
	}
}

func buildSearchConfig(defaultLimit int, opts []SearchOption) *searchConfig {
	cfg := &searchConfig{limit: defaultLimit}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
