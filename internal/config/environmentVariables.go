package config

import "time"

const (
	TRACE_ID_KEY = "traceId"

	//corpus and index locations
	DefaultDataDir        = "data"
	DefaultVectorStoreDir = "vectorstore"
	DefaultModelPath      = "models/llama/llama-3-8b-instruct.Q4_K_M.gguf"

	//splitter, in characters
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 128

	//retriever
	DefaultTopK             = 4
	DefaultSimilarityMetric = "cosine"

	//embeddings
	DefaultEmbedder       = "hash"
	DefaultEmbeddingDim   = 384 // same width as all-MiniLM-L6-v2
	DefaultEmbedBatchSize = 64
	DefaultEmbedRateLimit = 5.0 //remote requests per second, 0 disables
	DefaultOpenAIModel    = "text-embedding-3-small"
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	GoogleEmbeddingModel  = "gemini-embedding-001"

	//llm
	DefaultLLMProvider       = "llamacpp"
	DefaultLlamaServerBinary = "llama-server"
	DefaultContextSize       = 4096
	DefaultTemperature       = 0.2
	DefaultTopP              = 0.95
	DefaultGPULayers         = 35
	DefaultMaxTokens         = 512
	DefaultGenerationTimeout = 2 * time.Minute
	LlamaServerStartTimeout  = 3 * time.Minute
	LlamaServerHost          = "127.0.0.1"
	LlamaServerPort          = 8088
	GeminiModelName          = "gemini-2.5-flash-lite-preview-09-2025"

	//prompt budget estimate
	CharsPerToken = 4

	//vector backends
	VectorBackendLocal       = "local"
	VectorBackendQdrant      = "qdrant"
	QdrantHost               = "localhost"
	QdrantGrpcPort           = 6334
	QdrantUseTLS             = false
	QdrantPoolSize           = 1
	DefaultQdrantCollection  = "rag-chunks"
	QdrantConnectionTimeout  = 30 * time.Second
	QdrantUpsertBatchSize    = 100
	PdfPageExtractionTimeout = 10 * time.Second

	//redis embedding cache, empty address disables it
	RedisEmbeddingCacheDB  = 2
	RedisEmbeddingCacheTTL = 7 * 24 * time.Hour
	RedisTimeout           = 30 * time.Second
	RedisPingTimeout       = 3 * time.Second

	//http pooling for llama-server
	MaxIdleConns        = 10
	MaxIdleConnsPerHost = 10
	IdleConnTimeout     = 60 * time.Second

	//metrics server timeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//serialised llm queue
	GenerationQueueBuffer = 16

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ExitWords end the chat loop, compared case-insensitively.
var ExitWords = []string{"sair", "exit", "quit"}
