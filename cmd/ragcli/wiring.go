package main

import (
	"context"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/cachedEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/llm/gemini"
	"github.com/akolanti/GoRAG/internal/rag/llm/llamacpp"
	"github.com/akolanti/GoRAG/internal/rag/prompt"
	"github.com/akolanti/GoRAG/internal/rag/retriever"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/flatIndex"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/GoRAG/internal/server"
	"github.com/akolanti/GoRAG/internal/worker"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var wiringLogger = logger_i.NewLogger("wiring")

func noop() {}

func generationConfig(cfg *config.AppConfig) llm.GenerationConfig {
	return llm.GenerationConfig{
		ContextSize: cfg.ContextSize,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		GPULayers:   cfg.GPULayers,
		MaxTokens:   cfg.MaxTokens,
	}
}

// buildEmbedder returns the configured model, behind a Redis cache when
// REDIS_ADDR is set. An unreachable Redis falls back to an in-process cache.
func buildEmbedder(ctx context.Context, cfg *config.AppConfig) (embedding.Embedder, func(), error) {
	var e embedding.Embedder
	switch cfg.Embedder {
	case "openai":
		e = openaiEmbedding.NewOpenAIEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, 0, cfg.EmbedRateLimit)
	case "google":
		var err error
		e, err = googleEmbedding.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleAPIKey, cfg.EmbeddingDim, cfg.EmbedRateLimit)
		if err != nil {
			return nil, noop, err
		}
	default:
		return hashEmbedding.NewHashEmbedder(cfg.EmbeddingDim), noop, nil
	}

	if cfg.RedisAddr == "" {
		return e, noop, nil
	}
	redis, err := redisStore.NewRedisStore(ctx, cfg.RedisAddr, config.RedisEmbeddingCacheDB)
	if err != nil {
		wiringLogger.Error("Redis is offline, caching embeddings in memory", "error", err)
		return cachedEmbedding.NewCachedEmbedder(e, store.InitInMemoryVectorCache()), noop, nil
	}
	cache := store.NewRedisVectorCache(redis, config.RedisEmbeddingCacheTTL)
	return cachedEmbedding.NewCachedEmbedder(e, cache), func() { _ = redis.Close() }, nil
}

func buildSearcher(ctx context.Context, cfg *config.AppConfig, e embedding.Embedder) (vectorDB.Searcher, func(), error) {
	if cfg.VectorBackend == config.VectorBackendQdrant {
		db, err := qdrantDB.NewClient(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
		if err != nil {
			return nil, noop, err
		}
		if err := db.CheckReady(ctx, e.ModelInfo()); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	index, err := flatIndex.Load(cfg.VectorStoreDir)
	if err != nil {
		return nil, noop, err
	}
	if err := index.CheckModel(e.ModelInfo()); err != nil {
		return nil, noop, err
	}
	wiringLogger.Info("Index loaded", "dir", cfg.VectorStoreDir, "chunks", index.Len(), "metric", index.Metric())
	return index, noop, nil
}

func buildProvider(ctx context.Context, cfg *config.AppConfig) (llm.Provider, func(), error) {
	genCfg := generationConfig(cfg)
	if cfg.LLMProvider == "gemini" {
		p, err := gemini.NewGeminiClient(ctx, cfg.GoogleAPIKey, config.GeminiModelName, genCfg, "")
		return p, noop, err
	}

	c, err := llamacpp.New(ctx, llamacpp.Options{
		ModelPath: cfg.ModelPath,
		ServerURL: cfg.LLMServerURL,
		Binary:    cfg.LlamaServerBinary,
		Config:    genCfg,
	})
	if err != nil {
		return nil, noop, err
	}
	return c, func() { _ = c.Close() }, nil
}

// buildService checks the model file before the index, then wires the query
// pipeline over a serialised model. The returned func releases everything.
func buildService(ctx context.Context, cfg *config.AppConfig) (rag.Service, func(), error) {
	if cfg.LLMProvider == "llamacpp" && cfg.LLMServerURL == "" {
		if err := llamacpp.CheckModel(cfg.ModelPath); err != nil {
			return nil, noop, err
		}
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (rag.Service, func(), error) {
		closeAll()
		return nil, noop, err
	}

	embedder, closeEmbedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeEmbedder)

	searcher, closeSearcher, err := buildSearcher(ctx, cfg, embedder)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeSearcher)

	r, err := retriever.NewRetriever(embedder, searcher, cfg.TopK)
	if err != nil {
		return fail(err)
	}

	template := ""
	if cfg.PromptTemplateFile != "" {
		if template, err = prompt.LoadTemplate(cfg.PromptTemplateFile); err != nil {
			return fail(err)
		}
	}
	builder, err := prompt.NewBuilder(template, generationConfig(cfg).PromptBudget())
	if err != nil {
		return fail(err)
	}

	provider, closeProvider, err := buildProvider(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("loading model: %w", err))
	}
	closers = append(closers, closeProvider)

	serial := worker.NewSerial(provider, config.GenerationQueueBuffer)
	closers = append(closers, serial.Close)

	return rag.NewService(r, builder, serial, cfg.GenerationTimeout), closeAll, nil
}

func startMetrics(ctx context.Context, a *app) {
	if a.metricsAddr == "" {
		return
	}
	go func() {
		if err := server.Serve(ctx, a.metricsAddr); err != nil {
			a.logger.Error("Metrics server stopped", "error", err)
		}
	}()
}
