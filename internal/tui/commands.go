package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/lectern/lectern/internal/client"
)

// Query message types for Bubble Tea.
type queryResultMsg struct {
	result client.QueryResult
}

type queryErrorMsg struct {
	err error
}

type statsMsg struct {
	stats client.CourseStats
	err   error
}

// askQuestion creates a command that sends one question to the API.
// The API is request/response, so a plain command suffices; the ctx is
// the per-query timeout context, canceled by esc/ctrl+c.
func askQuestion(ctx context.Context, api *client.Client, query, sessionID string) tea.Cmd {
	return func() tea.Msg {
		result, err := api.Query(ctx, query, sessionID)
		if err != nil {
			// Surface the cause of a cancellation, not the transport
			// error wrapping it.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return queryErrorMsg{err: ctxErr}
			}
			return queryErrorMsg{err: err}
		}
		return queryResultMsg{result: result}
	}
}

// fetchStats creates a command that loads course statistics once at startup.
func fetchStats(ctx context.Context, api *client.Client) tea.Cmd {
	return func() tea.Msg {
		stats, err := api.Courses(ctx)
		return statsMsg{stats: stats, err: err}
	}
}
