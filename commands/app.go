package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"research-assistant/server/agents"
	"research-assistant/server/agents/analyst"
	"research-assistant/server/config"
	"research-assistant/server/llm/providers"
	"research-assistant/server/llm/providers/openai"
	"research-assistant/server/logging"
	"research-assistant/server/research"
	"research-assistant/server/search/tavily"
	"research-assistant/server/workflow"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	registry  *providers.Registry
	workflow  *workflow.Workflow
	generator *analyst.Generator
}

func newApp(console bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	var log zerolog.Logger
	if console {
		log = logging.NewConsole(cfg.LogLevel)
	} else {
		log = logging.New(os.Stderr, cfg.LogLevel)
	}

	provider, err := openai.NewProvider(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init openai provider: %w", err)
	}

	registry := providers.NewRegistry()
	registry.Register(provider)

	llm, err := registry.Get(provider.Name())
	if err != nil {
		return nil, err
	}

	searcher, err := tavily.NewClient(tavily.Config{
		APIKey:     cfg.TavilyAPIKey,
		MaxResults: cfg.MaxSearchResults,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init tavily client: %w", err)
	}

	opts := agents.Options{
		Model:       cfg.Model,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}

	return &app{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		workflow:  workflow.New(llm, searcher, opts, log),
		generator: analyst.NewGenerator(llm, opts, log),
	}, nil
}

// runConfig merges CLI flags with configured defaults.
func (a *app) runConfig(topic, feedback string, maxAnalysts, maxTurns, parallelism int) research.Config {
	cfg := research.Config{
		Topic:         topic,
		MaxAnalysts:   maxAnalysts,
		MaxTurns:      maxTurns,
		HumanFeedback: feedback,
		Parallelism:   parallelism,
	}
	if cfg.MaxAnalysts <= 0 {
		cfg.MaxAnalysts = a.cfg.MaxAnalysts
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = a.cfg.MaxTurns
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = a.cfg.Parallelism
	}
	return cfg
}
