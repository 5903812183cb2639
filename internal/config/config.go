package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig is the resolved configuration shared by the ingest and chat commands.
type AppConfig struct {
	DataDir        string
	VectorStoreDir string
	ModelPath      string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	Metric       string

	Embedder       string
	EmbeddingDim   int
	EmbeddingModel string
	EmbedBatchSize int
	EmbedRateLimit float64
	OpenAIBaseURL  string
	OpenAIAPIKey   string
	GoogleAPIKey   string

	LLMProvider        string
	LLMServerURL       string
	LlamaServerBinary  string
	ContextSize        int
	Temperature        float32
	TopP               float32
	GPULayers          int
	MaxTokens          int
	GenerationTimeout  time.Duration
	PromptTemplateFile string

	VectorBackend    string
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string

	RedisAddr string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"data_dir":             DefaultDataDir,
	"vector_store_dir":     DefaultVectorStoreDir,
	"model_path":           DefaultModelPath,
	"chunk_size":           DefaultChunkSize,
	"chunk_overlap":        DefaultChunkOverlap,
	"top_k":                DefaultTopK,
	"similarity_metric":    DefaultSimilarityMetric,
	"embedder":             DefaultEmbedder,
	"embedding_dim":        DefaultEmbeddingDim,
	"embedding_model":      "",
	"embed_batch_size":     DefaultEmbedBatchSize,
	"embed_rate_limit":     DefaultEmbedRateLimit,
	"openai_base_url":      DefaultOpenAIBaseURL,
	"openai_api_key":       "",
	"google_api_key":       "",
	"llm_provider":         DefaultLLMProvider,
	"llm_server_url":       "",
	"llama_server_bin":     DefaultLlamaServerBinary,
	"n_ctx":                DefaultContextSize,
	"temperature":          DefaultTemperature,
	"top_p":                DefaultTopP,
	"n_gpu_layers":         DefaultGPULayers,
	"max_tokens":           DefaultMaxTokens,
	"generation_timeout":   DefaultGenerationTimeout,
	"prompt_template_file": "",
	"vector_backend":       VectorBackendLocal,
	"qdrant_host":          QdrantHost,
	"qdrant_port":          QdrantGrpcPort,
	"qdrant_collection":    DefaultQdrantCollection,
	"redis_addr":           "",
	"log_level":            DefaultLogLevel,
	"log_format":           DefaultLogFormat,
}

// Load resolves configuration from defaults, an optional YAML file, a .env file
// in the working directory and the process environment, in increasing priority.
func Load(configFile string) (*AppConfig, error) {
	// a missing .env is the normal case
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := &AppConfig{
		DataDir:            v.GetString("data_dir"),
		VectorStoreDir:     v.GetString("vector_store_dir"),
		ModelPath:          v.GetString("model_path"),
		ChunkSize:          v.GetInt("chunk_size"),
		ChunkOverlap:       v.GetInt("chunk_overlap"),
		TopK:               v.GetInt("top_k"),
		Metric:             strings.ToLower(v.GetString("similarity_metric")),
		Embedder:           strings.ToLower(v.GetString("embedder")),
		EmbeddingDim:       v.GetInt("embedding_dim"),
		EmbeddingModel:     v.GetString("embedding_model"),
		EmbedBatchSize:     v.GetInt("embed_batch_size"),
		EmbedRateLimit:     v.GetFloat64("embed_rate_limit"),
		OpenAIBaseURL:      v.GetString("openai_base_url"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		GoogleAPIKey:       v.GetString("google_api_key"),
		LLMProvider:        strings.ToLower(v.GetString("llm_provider")),
		LLMServerURL:       v.GetString("llm_server_url"),
		LlamaServerBinary:  v.GetString("llama_server_bin"),
		ContextSize:        v.GetInt("n_ctx"),
		Temperature:        float32(v.GetFloat64("temperature")),
		TopP:               float32(v.GetFloat64("top_p")),
		GPULayers:          v.GetInt("n_gpu_layers"),
		MaxTokens:          v.GetInt("max_tokens"),
		GenerationTimeout:  v.GetDuration("generation_timeout"),
		PromptTemplateFile: v.GetString("prompt_template_file"),
		VectorBackend:      strings.ToLower(v.GetString("vector_backend")),
		QdrantHost:         v.GetString("qdrant_host"),
		QdrantPort:         v.GetInt("qdrant_port"),
		QdrantCollection:   v.GetString("qdrant_collection"),
		RedisAddr:          v.GetString("redis_addr"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
	}
	applyModelDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyModelDefaults(cfg *AppConfig) {
	if cfg.EmbeddingModel != "" {
		return
	}
	switch cfg.Embedder {
	case "openai":
		cfg.EmbeddingModel = DefaultOpenAIModel
	case "google":
		cfg.EmbeddingModel = GoogleEmbeddingModel
	}
}

// Validate rejects combinations the pipelines cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize))
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap))
	}
	if c.TopK < 1 {
		errs = append(errs, fmt.Errorf("top_k must be at least 1, got %d", c.TopK))
	}
	if c.Metric != "cosine" && c.Metric != "l2" {
		errs = append(errs, fmt.Errorf("unknown similarity_metric %q", c.Metric))
	}
	switch c.Embedder {
	case "hash", "openai", "google":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder %q", c.Embedder))
	}
	if c.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding_dim must be positive, got %d", c.EmbeddingDim))
	}
	if c.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embed_batch_size must be positive, got %d", c.EmbedBatchSize))
	}
	switch c.LLMProvider {
	case "llamacpp", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown llm_provider %q", c.LLMProvider))
	}
	switch c.VectorBackend {
	case VectorBackendLocal, VectorBackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("unknown vector_backend %q", c.VectorBackend))
	}
	if c.MaxTokens >= c.ContextSize {
		errs = append(errs, fmt.Errorf("max_tokens (%d) must be smaller than n_ctx (%d)", c.MaxTokens, c.ContextSize))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("generation_timeout must be positive"))
	}
	return errors.Join(errs...)
}
