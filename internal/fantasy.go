package internal

import (
	"context"
	"fmt"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"

	DefaultGenerationModel = "gpt-4"
)

type FantasyConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

var _ Generator = (*FantasyGenerator)(nil)

type FantasyGenerator struct {
	model fantasy.LanguageModel
	name  string
}

// providerBuilders constructs a fantasy provider from one config entry.
var providerBuilders = map[string]func(FantasyConfig) (fantasy.Provider, error){
	ProviderOpenAI: func(cfg FantasyConfig) (fantasy.Provider, error) {
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	},
	ProviderAnthropic: func(cfg FantasyConfig) (fantasy.Provider, error) {
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	},
	ProviderOpenRouter: func(cfg FantasyConfig) (fantasy.Provider, error) {
		return openrouter.New(openrouter.WithAPIKey(cfg.APIKey))
	},
}

// NewFantasyGenerator resolves cfg.Model on the named provider. An empty
// model falls back to DefaultGenerationModel.
func NewFantasyGenerator(ctx context.Context, cfg FantasyConfig) (*FantasyGenerator, error) {
	build, ok := providerBuilders[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: provider %s has no api key", ErrInvalidConfig, cfg.Provider)
	}

	provider, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGeneration, cfg.Provider, err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGenerationModel
	}
	model, err := provider.LanguageModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s model %q: %w", ErrGeneration, cfg.Provider, modelName, err)
	}

	return &FantasyGenerator{model: model, name: cfg.Provider}, nil
}

func (g *FantasyGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := fantasy.NewAgent(g.model).Generate(ctx, fantasy.AgentCall{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGeneration, g.name, err)
	}

	return result.Response.Content.Text(), nil
}

// Stream calls onDelta for every text delta and returns the full answer.
func (g *FantasyGenerator) Stream(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	agent := fantasy.NewAgent(g.model)

	var full []byte
	_, err := agent.Stream(ctx, fantasy.AgentStreamCall{
		Prompt: prompt,
		OnTextDelta: func(_, text string) error {
			if text == "" {
				return nil
			}
			full = append(full, text...)
			if onDelta != nil {
				onDelta(text)
			}
			return nil
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrGeneration, g.name, err)
	}

	return string(full), nil
}
