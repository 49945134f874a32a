// Package app wires configuration, the AI provider, the knowledge store,
// and the RAG system into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/course"
	"github.com/lectern/lectern/internal/generate"
	"github.com/lectern/lectern/internal/knowledge"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/tools"
)

// App holds all initialized application components.
type App struct {
	Config   *config.Config
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Store    *knowledge.Store
	RAG      *rag.System
	Sessions *session.Manager
	Logger   log.Logger
}

// Setup creates and initializes the application.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	store, err := knowledge.New(cfg.DataDir, embedder, cfg.MaxResults, logger)
	if err != nil {
		return nil, err
	}

	processor, err := course.NewProcessor(cfg.ChunkSize, cfg.ChunkOverlap, logger)
	if err != nil {
		return nil, err
	}

	manager := tools.NewManager()
	search, err := tools.NewCourseSearch(store, logger)
	if err != nil {
		return nil, err
	}
	outline, err := tools.NewCourseOutline(store, logger)
	if err != nil {
		return nil, err
	}
	if err := manager.Register(search); err != nil {
		return nil, err
	}
	if err := manager.Register(outline); err != nil {
		return nil, err
	}
	registered, err := tools.Register(g, manager)
	if err != nil {
		return nil, err
	}

	generator, err := generate.New(generate.Config{
		Genkit:    g,
		Manager:   manager,
		Tools:     registered,
		Logger:    logger,
		ModelName: cfg.FullModelName(),
	})
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(cfg.MaxHistory)
	if err != nil {
		return nil, err
	}

	system, err := rag.New(rag.Config{
		Processor: processor,
		Store:     store,
		Generator: generator,
		Sessions:  sessions,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"data_dir", cfg.DataDir,
	)

	return &App{
		Config:   cfg,
		Genkit:   g,
		Embedder: embedder,
		Store:    store,
		RAG:      system,
		Sessions: sessions,
		Logger:   logger,
	}, nil
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
// Supports gemini (default), ollama, and openai.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // gemini
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		// Keyed by server address, registered in provideGenkit.
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default: // gemini
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}
