// Package client provides the HTTP client used by the chat frontend to talk
// to the REST API, plus the session cell that pins a conversation to the
// first session the server assigns.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout bounds a single API call. Generation with tool rounds can
// take a while.
const requestTimeout = 2 * time.Minute

// QueryResult is the answer to one question.
type QueryResult struct {
	Answer    string
	Sources   []string
	SessionID string
}

// CourseStats mirrors the catalog statistics endpoint.
type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Client talks to the course assistant REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API at baseURL, e.g. "http://127.0.0.1:8000".
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}, nil
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// queryResponse decodes sources loosely: entries of any type are accepted
// and stringified, so a server change cannot break rendering.
type queryResponse struct {
	Answer    string `json:"answer"`
	Sources   []any  `json:"sources"`
	SessionID string `json:"session_id"`
}

// Query asks a question. sessionID may be empty; the server then assigns one
// and returns it in the result.
func (c *Client) Query(ctx context.Context, query, sessionID string) (QueryResult, error) {
	body, err := json.Marshal(queryRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return QueryResult{}, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return QueryResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return QueryResult{}, fmt.Errorf("querying API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return QueryResult{}, apiError(resp)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return QueryResult{}, fmt.Errorf("decoding query response: %w", err)
	}

	sources := make([]string, 0, len(decoded.Sources))
	for _, s := range decoded.Sources {
		if str, ok := s.(string); ok {
			sources = append(sources, str)
		} else {
			sources = append(sources, fmt.Sprintf("%v", s))
		}
	}

	return QueryResult{
		Answer:    decoded.Answer,
		Sources:   sources,
		SessionID: decoded.SessionID,
	}, nil
}

// Courses fetches course catalog statistics.
func (c *Client) Courses(ctx context.Context) (CourseStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/courses", nil)
	if err != nil {
		return CourseStats{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return CourseStats{}, fmt.Errorf("fetching course stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CourseStats{}, apiError(resp)
	}

	var stats CourseStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return CourseStats{}, fmt.Errorf("decoding course stats: %w", err)
	}
	return stats, nil
}

// apiError extracts the server's error detail when present.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("API error (%d)", resp.StatusCode)
}
