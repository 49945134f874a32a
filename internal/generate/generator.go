// Package generate drives answer generation through Genkit with
// tool-assisted retrieval over course materials.
package generate

import (
	"context"
	"errors"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/tools"
)

// SystemPrompt instructs the model on tool usage and response style.
const SystemPrompt = `You are an AI assistant specialized in course materials and educational content with access to comprehensive search and outline tools.

Tool Usage:
- **Sequential Tool Calling**: You can make multiple tool calls across up to 2 separate reasoning rounds to gather comprehensive information
- **Course Content Search**: Use for questions about specific course content or detailed educational materials
- **Course Outline**: Use for questions about course structure, lesson lists, course overviews, or curriculum information
- **Multi-step Reasoning**: First gather information, then reason about results to make additional searches if needed
- Synthesize results into accurate, fact-based responses
- If tools yield no results, state this clearly without offering alternatives

Sequential Tool Calling Examples:
- "Compare topics in lesson 4 of course X with course Y" -> Get outline/content of course X lesson 4 -> Search course Y for similar topics -> Synthesize comparison
- "Find courses discussing the same topic as lesson 3 of MCP course" -> Get lesson 3 content/title -> Search for courses covering that topic -> Present results
- "What prerequisites are needed before taking the advanced Python course?" -> Get course outline -> Search for prerequisite topics in other courses -> Compile requirements

Course Outline Tool:
- Returns: Course title, course link, instructor, and complete lesson list with numbers and titles
- Use for queries about:
  - "What lessons are in [course]?"
  - "Course outline for [course]"
  - "What topics does [course] cover?"
  - "Course structure of [course]"

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without searching
- **Course-specific questions**: Use appropriate tool(s) first, then answer
- **Multi-step queries**: Use first tool call to gather initial information, evaluate if additional searches are needed for complete answer
- **Course outline queries**: Always include the course title, course link, and complete numbered lesson list
- **No meta-commentary**:
 - Provide direct answers only - no reasoning process, tool explanations, or question-type analysis
 - Do not mention "based on the search results" or "using the tool"

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// Generation limits.
const (
	// DefaultMaxToolRounds bounds sequential tool-calling rounds before the
	// model is forced to synthesize an answer without tools.
	DefaultMaxToolRounds = 2

	maxOutputTokens = 800
)

// toolFailureMessage is returned when tool execution breaks mid-generation.
const toolFailureMessage = "I encountered an error while searching for information. Please try again."

// emptyResponseMessage is returned when the model produces no text.
const emptyResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."

// Config contains required parameters for the Generator.
type Config struct {
	Genkit    *genkit.Genkit
	Manager   *tools.Manager
	Tools     []ai.Tool // Pre-registered via tools.Register
	Logger    log.Logger
	ModelName string // Provider-qualified, e.g. "googleai/gemini-2.5-flash"

	MaxToolRounds int           // Zero uses DefaultMaxToolRounds
	RetryConfig   RetryConfig   // Zero value uses defaults
	RateLimiter   *rate.Limiter // Optional, nil uses a default limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Generator produces answers, running retrieval tools between model turns.
// All configuration is captured at construction; Generator is safe for
// concurrent use.
type Generator struct {
	g             *genkit.Genkit
	manager       *tools.Manager
	toolRefs      []ai.ToolRef
	logger        log.Logger
	modelName     string
	maxToolRounds int
	retryConfig   RetryConfig
	rateLimiter   *rate.Limiter
}

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxToolRounds
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
	}

	return &Generator{
		g:             cfg.Genkit,
		manager:       cfg.Manager,
		toolRefs:      toolRefs,
		logger:        cfg.Logger,
		modelName:     cfg.ModelName,
		maxToolRounds: maxRounds,
		retryConfig:   retryConfig,
		rateLimiter:   rl,
	}, nil
}

// Respond answers query. history, when non-empty, is the formatted prior
// conversation and is appended to the system content.
//
// Tool calls requested by the model are executed through the tool manager
// for up to the configured number of rounds; a final round without tools
// then forces the model to synthesize from what it gathered.
func (gen *Generator) Respond(ctx context.Context, query, history string) (string, error) {
	system := SystemPrompt
	if history != "" {
		system = SystemPrompt + "\n\nPrevious conversation:\n" + history
	}

	messages := []*ai.Message{ai.NewUserMessage(ai.NewTextPart(query))}

	if gen.manager == nil || len(gen.toolRefs) == 0 {
		resp, err := gen.generate(ctx, system, messages, false)
		if err != nil {
			return "", err
		}
		return gen.responseText(resp), nil
	}

	for round := 0; round < gen.maxToolRounds; round++ {
		resp, err := gen.generate(ctx, system, messages, true)
		if err != nil {
			return "", err
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			return gen.responseText(resp), nil
		}

		gen.logger.Debug("executing tool round",
			"round", round+1, "requests", len(requests))

		messages = append(messages, resp.Message)
		toolMsg, ok := gen.executeTools(ctx, requests)
		if !ok {
			return toolFailureMessage, nil
		}
		messages = append(messages, toolMsg)
	}

	resp, err := gen.generate(ctx, system, messages, false)
	if err != nil {
		return "", err
	}
	return gen.responseText(resp), nil
}

// executeTools runs every requested tool and builds the tool response
// message. ok is false when a tool panics, which must not take down the
// request.
func (gen *Generator) executeTools(ctx context.Context, requests []*ai.ToolRequest) (msg *ai.Message, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			gen.logger.Error("tool execution panicked", "panic", r)
			msg, ok = nil, false
		}
	}()

	parts := make([]*ai.Part, 0, len(requests))
	for _, req := range requests {
		args, _ := req.Input.(map[string]any)
		result := gen.manager.Execute(ctx, req.Name, args)
		parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
			Name:   req.Name,
			Ref:    req.Ref,
			Output: result,
		}))
	}
	return ai.NewMessage(ai.RoleTool, nil, parts...), true
}

// generate issues one model call with retry and rate limiting.
func (gen *Generator) generate(ctx context.Context, system string, messages []*ai.Message, withTools bool) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(gen.modelName),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     0,
			MaxOutputTokens: maxOutputTokens,
		}),
	}
	if withTools {
		opts = append(opts,
			ai.WithTools(gen.toolRefs...),
			ai.WithReturnToolRequests(true),
		)
	}

	return gen.generateWithRetry(ctx, opts)
}

// responseText extracts the response text with an apology fallback for
// empty output.
func (gen *Generator) responseText(resp *ai.ModelResponse) string {
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		gen.logger.Warn("model returned empty response")
		return emptyResponseMessage
	}
	return text
}

// Sources returns the sources gathered by the most recent tool round and
// clears them.
func (gen *Generator) Sources() []string {
	if gen.manager == nil {
		return nil
	}
	sources := gen.manager.LastSources()
	gen.manager.ResetSources()
	return sources
}
