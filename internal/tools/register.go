package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Register exposes the manager's tools to Genkit so generation can call them.
// Returns the ai.Tool handles to pass to generate options.
func Register(g *genkit.Genkit, m *Manager) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if m == nil {
		return nil, fmt.Errorf("manager is required")
	}

	var out []ai.Tool
	for _, t := range m.Tools() {
		switch tool := t.(type) {
		case *CourseSearch:
			out = append(out, genkit.DefineTool(g, tool.Name(), tool.Description(),
				func(ctx *ai.ToolContext, input SearchInput) (string, error) {
					return tool.Run(ctx, input), nil
				}))
		case *CourseOutline:
			out = append(out, genkit.DefineTool(g, tool.Name(), tool.Description(),
				func(ctx *ai.ToolContext, input OutlineInput) (string, error) {
					return tool.Run(ctx, input), nil
				}))
		default:
			return nil, fmt.Errorf("tool %q has no Genkit schema", t.Name())
		}
	}
	return out, nil
}
