package config

import (
	"os"
	"strconv"
	"time"

	"liftbot/domain/core"
)

// Config is the complete application configuration. It is constructed once
// at startup and passed by reference into each component's constructor;
// there is no ambient global state.
type Config struct {
	OpenAI  OpenAIConfig
	Dataset DatasetConfig
	Index   IndexConfig
	Query   QueryConfig
	Server  ServerConfig
}

// OpenAIConfig holds settings for the external generation and embedding
// collaborators.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        time.Duration
}

// Offline reports whether no API key is configured; the binaries then fall
// back to the deterministic local embedder and a mock generator.
func (c OpenAIConfig) Offline() bool {
	return c.APIKey == ""
}

// DatasetConfig holds the input dataset location.
type DatasetConfig struct {
	Path string
}

// IndexConfig holds the semantic index operating ranges and space weights.
// Numeric values outside a space's documented range are clamped.
type IndexConfig struct {
	// Mismatch similarity per categorical space
	ExperimentNegativeFilter float64
	RegionNegativeFilter     float64
	StoreTypeNegativeFilter  float64

	// Domain maxima for the numeric spaces
	UsersMax          float64
	ConversionsMax    float64
	RevenueMax        float64
	ConversionRateMax float64

	// Space weights
	DescriptionWeight    float64
	ExperimentWeight     float64
	RegionWeight         float64
	StoreTypeWeight      float64
	UsersWeight          float64
	ConversionsWeight    float64
	RevenueWeight        float64
	ConversionRateWeight float64

	// Bounded parallelism for the one-time bulk embedding
	EmbedWorkers int
}

// QueryConfig holds query engine and intent router settings.
type QueryConfig struct {
	DefaultLimit   int
	FilterCap      int
	GreetingMaxLen int
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAI:  loadOpenAIConfig(),
		Dataset: loadDatasetConfig(),
		Index:   loadIndexConfig(),
		Query:   loadQueryConfig(),
		Server:  loadServerConfig(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         os.Getenv("OPENAI_API_KEY"),
		BaseURL:        getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		Model:          getEnvOrDefault("OPENAI_MODEL", "gpt-4"),
		EmbeddingModel: getEnvOrDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    getEnvFloatOrDefault("OPENAI_TEMPERATURE", 0.3),
		MaxTokens:      getEnvIntOrDefault("OPENAI_MAX_TOKENS", 1000),
		Timeout:        time.Duration(getEnvIntOrDefault("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func loadDatasetConfig() DatasetConfig {
	return DatasetConfig{
		Path: getEnvOrDefault("DATASET_PATH", "tiendas_detalle.csv"),
	}
}

func loadIndexConfig() IndexConfig {
	return IndexConfig{
		ExperimentNegativeFilter: getEnvFloatOrDefault("EXPERIMENT_NEGATIVE_FILTER", 0.8),
		RegionNegativeFilter:     getEnvFloatOrDefault("REGION_NEGATIVE_FILTER", 0.7),
		StoreTypeNegativeFilter:  getEnvFloatOrDefault("STORE_TYPE_NEGATIVE_FILTER", 0.7),

		UsersMax:          getEnvFloatOrDefault("USERS_MAX", 500),
		ConversionsMax:    getEnvFloatOrDefault("CONVERSIONS_MAX", 50),
		RevenueMax:        getEnvFloatOrDefault("REVENUE_MAX", 1000),
		ConversionRateMax: getEnvFloatOrDefault("CONVERSION_RATE_MAX", 20),

		DescriptionWeight:    getEnvFloatOrDefault("DESCRIPTION_SPACE_WEIGHT", 1.0),
		ExperimentWeight:     getEnvFloatOrDefault("EXPERIMENT_SPACE_WEIGHT", 0.9),
		RegionWeight:         getEnvFloatOrDefault("REGION_SPACE_WEIGHT", 0.8),
		StoreTypeWeight:      getEnvFloatOrDefault("STORE_TYPE_SPACE_WEIGHT", 0.8),
		UsersWeight:          getEnvFloatOrDefault("USERS_SPACE_WEIGHT", 0.6),
		ConversionsWeight:    getEnvFloatOrDefault("CONVERSIONS_SPACE_WEIGHT", 0.8),
		RevenueWeight:        getEnvFloatOrDefault("REVENUE_SPACE_WEIGHT", 0.8),
		ConversionRateWeight: getEnvFloatOrDefault("CONVERSION_RATE_SPACE_WEIGHT", 0.9),

		EmbedWorkers: getEnvIntOrDefault("EMBED_WORKERS", 4),
	}
}

func loadQueryConfig() QueryConfig {
	return QueryConfig{
		DefaultLimit:   getEnvIntOrDefault("DEFAULT_LIMIT", 5),
		FilterCap:      getEnvIntOrDefault("FILTER_SEARCH_CAP", 20),
		GreetingMaxLen: getEnvIntOrDefault("GREETING_MAX_LEN", 15),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func validate(cfg *Config) error {
	if cfg.Dataset.Path == "" {
		return core.NewConfigError("DATASET_PATH is required")
	}
	for name, v := range map[string]float64{
		"USERS_MAX":           cfg.Index.UsersMax,
		"CONVERSIONS_MAX":     cfg.Index.ConversionsMax,
		"REVENUE_MAX":         cfg.Index.RevenueMax,
		"CONVERSION_RATE_MAX": cfg.Index.ConversionRateMax,
	} {
		if v <= 0 {
			return core.NewConfigError(name + " must be positive")
		}
	}
	if cfg.Query.DefaultLimit <= 0 || cfg.Query.FilterCap <= 0 {
		return core.NewConfigError("DEFAULT_LIMIT and FILTER_SEARCH_CAP must be positive")
	}
	if cfg.Index.EmbedWorkers <= 0 {
		cfg.Index.EmbedWorkers = 1
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
