package internal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	BackendFlat  = "flat"
	BackendAnnoy = "annoy"

	EmbeddingsOpenAI = "openai"
	EmbeddingsHash   = "hash"

	DefaultTopK         = 4
	DefaultHistoryTurns = 6
	DefaultWorkers      = 4
	DefaultDocumentsDir = "documents"
	DefaultPreamble     = "You are a helpful assistant that answers questions based on the provided document context. " +
		"When answering questions, try to synthesize information from multiple chunks if they're related."
)

type ChunkingConfig struct {
	MaxChunkChars int `yaml:"max_chunk_chars"`
}

type RetrievalConfig struct {
	TopK    int    `yaml:"top_k"`
	Backend string `yaml:"backend"`
	Trees   int    `yaml:"trees,omitempty"`
}

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

type GenerationConfig struct {
	Preamble     string `yaml:"preamble"`
	HistoryTurns int    `yaml:"history_turns"`
}

type IngestionConfig struct {
	DocumentsDir string `yaml:"documents_dir"`
	Workers      int    `yaml:"workers"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	Chunking        ChunkingConfig            `yaml:"chunking"`
	Retrieval       RetrievalConfig           `yaml:"retrieval"`
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Generation      GenerationConfig          `yaml:"generation"`
	Ingestion       IngestionConfig           `yaml:"ingestion"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxChunkChars: DefaultMaxChunkChars,
		},
		Retrieval: RetrievalConfig{
			TopK:    DefaultTopK,
			Backend: BackendFlat,
			Trees:   DefaultNumTrees,
		},
		Embeddings: EmbeddingsConfig{
			Backend:   EmbeddingsOpenAI,
			Model:     DefaultEmbeddingModel,
			Dimension: DefaultEmbeddingDimension,
			BatchSize: DefaultEmbeddingBatchSize,
		},
		Generation: GenerationConfig{
			Preamble:     DefaultPreamble,
			HistoryTurns: DefaultHistoryTurns,
		},
		Ingestion: IngestionConfig{
			DocumentsDir: DefaultDocumentsDir,
			Workers:      DefaultWorkers,
		},
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {Model: DefaultGenerationModel},
		},
		DefaultProvider: ProviderOpenAI,
	}
}

// LoadConfig returns DefaultConfig when path does not exist. Keys missing
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Chunking.MaxChunkChars <= 0 {
		return fmt.Errorf("%w: chunking.max_chunk_chars must be positive, got %d", ErrInvalidConfig, c.Chunking.MaxChunkChars)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive, got %d", ErrInvalidConfig, c.Retrieval.TopK)
	}
	switch c.Retrieval.Backend {
	case BackendFlat:
	case BackendAnnoy:
		if c.Retrieval.Trees <= 0 {
			return fmt.Errorf("%w: retrieval.trees must be positive, got %d", ErrInvalidConfig, c.Retrieval.Trees)
		}
	default:
		return fmt.Errorf("%w: retrieval.backend %q", ErrInvalidConfig, c.Retrieval.Backend)
	}
	switch c.Embeddings.Backend {
	case EmbeddingsOpenAI, EmbeddingsHash:
	default:
		return fmt.Errorf("%w: embeddings.backend %q", ErrInvalidConfig, c.Embeddings.Backend)
	}
	if c.Embeddings.Dimension <= 0 {
		return fmt.Errorf("%w: embeddings.dimension must be positive, got %d", ErrInvalidConfig, c.Embeddings.Dimension)
	}
	if c.Generation.HistoryTurns < 0 {
		return fmt.Errorf("%w: generation.history_turns must not be negative, got %d", ErrInvalidConfig, c.Generation.HistoryTurns)
	}
	if c.Ingestion.Workers <= 0 {
		return fmt.Errorf("%w: ingestion.workers must be positive, got %d", ErrInvalidConfig, c.Ingestion.Workers)
	}
	return nil
}

var providerEnv = map[string]string{
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// ApplyEnv fills empty credentials from the environment. Values already
// present in the config win.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Embeddings.APIKey == "" && c.Embeddings.Backend == EmbeddingsOpenAI {
		c.Embeddings.APIKey = getenv("OPENAI_API_KEY")
	}
	for name, p := range c.Providers {
		env, ok := providerEnv[name]
		if !ok || p.APIKey != "" {
			continue
		}
		p.APIKey = getenv(env)
		c.Providers[name] = p
	}
}

// Provider returns the named provider, or the default when name is empty.
func (c *Config) Provider(name string) (string, ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return "", ProviderConfig{}, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return name, p, nil
}
