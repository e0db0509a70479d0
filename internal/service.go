package internal

import (
	"context"
	"fmt"
	"slices"
)

// GeneratorFactory builds a Generator for one provider entry.
type GeneratorFactory func(ctx context.Context, cfg FantasyConfig) (Generator, error)

func NewFantasyGeneratorFactory() GeneratorFactory {
	return func(ctx context.Context, cfg FantasyConfig) (Generator, error) {
		return NewFantasyGenerator(ctx, cfg)
	}
}

// NewEmbedder picks the embedding backend named in cfg.
func NewEmbedder(cfg EmbeddingsConfig) (Embedder, error) {
	switch cfg.Backend {
	case EmbeddingsOpenAI, "":
		return NewOpenAIEmbedder(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
		})
	case EmbeddingsHash:
		return NewHashEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: embeddings.backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// NewGenerator resolves the named provider (the default when empty) and
// builds it with factory.
func NewGenerator(ctx context.Context, cfg *Config, name string, factory GeneratorFactory) (Generator, error) {
	name, p, err := cfg.Provider(name)
	if err != nil {
		return nil, err
	}
	return factory(ctx, FantasyConfig{
		Provider: name,
		APIKey:   p.APIKey,
		BaseURL:  p.BaseURL,
		Model:    p.Model,
	})
}

// ProviderService manages LLM provider configuration
type ProviderService struct {
	resolver *WorkspaceResolver
	factory  GeneratorFactory
	getenv   func(string) string
}

func NewProviderService(resolver *WorkspaceResolver, factory GeneratorFactory, getenv func(string) string) *ProviderService {
	return &ProviderService{resolver: resolver, factory: factory, getenv: getenv}
}

func (s *ProviderService) load(scopeHint string) (Workspace, *Config, error) {
	ws := s.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(ws.ConfigPath())
	if err != nil {
		return ws, nil, err
	}
	return ws, cfg, nil
}

func (s *ProviderService) save(ws Workspace, cfg *Config) error {
	if !ws.Exists() {
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, ws.RagPath)
	}
	return SaveConfig(ws.ConfigPath(), cfg)
}

// List returns the configured provider names in sorted order.
func (s *ProviderService) List(scopeHint string) ([]string, string, error) {
	_, cfg, err := s.load(scopeHint)
	if err != nil {
		return nil, "", err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, cfg.DefaultProvider, nil
}

func (s *ProviderService) Add(name string, providerCfg ProviderConfig, scopeHint string) error {
	if name == "" {
		return fmt.Errorf("%w: empty provider name", ErrInvalidArgument)
	}
	if _, ok := providerBuilders[name]; !ok {
		return fmt.Errorf("%w: unsupported provider %q", ErrInvalidArgument, name)
	}
	ws, cfg, err := s.load(scopeHint)
	if err != nil {
		return err
	}

	if providerCfg.Model == "" {
		providerCfg.Model = DefaultGenerationModel
	}
	cfg.Providers[name] = providerCfg
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = name
	}
	return s.save(ws, cfg)
}

func (s *ProviderService) Remove(name, scopeHint string) error {
	ws, cfg, err := s.load(scopeHint)
	if err != nil {
		return err
	}

	if _, exists := cfg.Providers[name]; !exists {
		return fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	delete(cfg.Providers, name)
	if cfg.DefaultProvider == name {
		cfg.DefaultProvider = ""
	}
	return s.save(ws, cfg)
}

func (s *ProviderService) SetDefault(name, scopeHint string) error {
	ws, cfg, err := s.load(scopeHint)
	if err != nil {
		return err
	}

	if _, exists := cfg.Providers[name]; !exists {
		return fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}

	cfg.DefaultProvider = name
	return s.save(ws, cfg)
}

// Test sends a short prompt through the provider.
func (s *ProviderService) Test(ctx context.Context, name, scopeHint string) error {
	_, cfg, err := s.load(scopeHint)
	if err != nil {
		return err
	}
	if s.getenv != nil {
		cfg.ApplyEnv(s.getenv)
	}

	gen, err := NewGenerator(ctx, cfg, name, s.factory)
	if err != nil {
		return err
	}

	_, err = gen.Complete(ctx, "Say hello")
	return err
}
