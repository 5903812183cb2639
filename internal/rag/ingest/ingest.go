package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/flatIndex"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type PipelineConfig struct {
	Loader    *Loader
	Splitter  *Splitter
	Embedder  embedding.Embedder
	BatchSize int
	Metric    flatIndex.Metric
	// Mirror, when set, receives a copy of every chunk and vector after the
	// local index has been persisted.
	Mirror vectorDB.DataProcessor
	// Progress receives one human readable line per stage.
	Progress io.Writer
}

// Pipeline is the offline path: Load, Split, Embed, Persist.
type Pipeline struct {
	cfg    PipelineConfig
	logger *logger_i.Logger
}

type Report struct {
	Documents int
	Chunks    int
	Dimension int
	Skipped   []*ragErrors.SkippedError
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Loader == nil {
		cfg.Loader = NewLoader()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.DefaultEmbedBatchSize
	}
	if cfg.Metric == "" {
		cfg.Metric = flatIndex.Cosine
	}
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	return &Pipeline{cfg: cfg, logger: logger_i.NewLogger("indexing_pipeline")}
}

// Run indexes dataDir into storeDir. With zero documents it returns
// ErrNoDocuments before anything is written.
func (p *Pipeline) Run(ctx context.Context, dataDir string, storeDir string) (Report, error) {
	var report Report
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("ingest_total", time.Since(start)) }()

	p.stage(commonModels.IngestLoad, "A carregar documentos de %s ...", dataDir)
	docs, skipped, err := p.cfg.Loader.Load(ctx, dataDir)
	report.Skipped = skipped
	if err != nil {
		return report, err
	}
	report.Documents = len(docs)
	if len(docs) == 0 {
		return report, fmt.Errorf("%w in %s", ragErrors.ErrNoDocuments, dataDir)
	}
	metrics.AddDocumentsIngested(len(docs))

	p.stage(commonModels.IngestSplit, "A dividir %d documentos em chunks ...", len(docs))
	chunks := p.cfg.Splitter.PrepareChunks(docs)
	report.Chunks = len(chunks)
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: documents in %s produced no chunks", ragErrors.ErrNoDocuments, dataDir)
	}

	p.stage(commonModels.IngestEmbed, "A criar embeddings para %d chunks ...", len(chunks))
	vectors, err := BatchEmbed(ctx, chunks, p.cfg.Embedder, p.cfg.BatchSize)
	if err != nil {
		return report, err
	}

	p.stage(commonModels.IngestPersist, "A gravar o indice em %s ...", storeDir)
	index, err := flatIndex.Build(vectors, chunks, p.cfg.Metric, p.cfg.Embedder.ModelInfo())
	if err != nil {
		return report, fmt.Errorf("building index: %w", err)
	}
	report.Dimension = index.Dimension()
	if err := index.Persist(storeDir); err != nil {
		return report, fmt.Errorf("persisting index: %w", err)
	}
	metrics.AddChunksIngested(len(chunks))

	if p.cfg.Mirror != nil {
		if err := MirrorIndex(ctx, p.cfg.Mirror, index); err != nil {
			return report, err
		}
	}

	p.logger.Info("Ingestion complete", "documents", report.Documents, "chunks", report.Chunks,
		"skipped", len(report.Skipped), "elapsed", time.Since(start))
	return report, nil
}

func (p *Pipeline) stage(state commonModels.PipelineState, format string, args ...any) {
	p.logger.Debug("Pipeline step", "Current Status", state)
	_, _ = fmt.Fprintf(p.cfg.Progress, format+"\n", args...)
}

// BatchEmbed embeds chunk texts batchSize at a time and checks that every
// vector has the same width.
func BatchEmbed(ctx context.Context, chunks []commonModels.DocChunk, e embedding.Embedder, batchSize int) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	dimension := -1

	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}

		start := time.Now()
		res, err := e.BatchEmbedding(ctx, texts)
		metrics.CaptureExecutionMetrics("embedding_batch", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("embedding batch starting at chunk %d: %w", i, err)
		}
		if len(res) != len(batch) {
			return nil, fmt.Errorf("embedding batch starting at chunk %d: got %d vectors for %d chunks", i, len(res), len(batch))
		}
		for j, v := range res {
			if dimension == -1 {
				dimension = len(v)
			}
			if len(v) == 0 || len(v) != dimension {
				return nil, fmt.Errorf("chunk %d: vector width %d, expected %d", i+j, len(v), dimension)
			}
		}
		vectors = append(vectors, res...)
		logger.Debug("Embedded batch", "from", i, "to", end)
	}
	return vectors, nil
}

// MirrorIndex replaces the backend's collection with the index contents.
func MirrorIndex(ctx context.Context, db vectorDB.DataProcessor, index *flatIndex.Index) error {
	if err := db.CreateCollection(ctx, index.Dimension(), string(index.Metric()), index.ModelInfo()); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	chunks, vectors := index.Chunks(), index.Vectors()
	for i := 0; i < len(chunks); i += config.QdrantUpsertBatchSize {
		end := min(i+config.QdrantUpsertBatchSize, len(chunks))
		if err := db.UpsertBatch(ctx, chunks[i:end], vectors[i:end]); err != nil {
			return fmt.Errorf("upserting chunks %d-%d: %w", i, end, err)
		}
	}
	if err := db.MarkComplete(ctx, len(chunks)); err != nil {
		return fmt.Errorf("marking collection complete: %w", err)
	}
	logger.Info("Index mirrored", "chunks", len(chunks))
	return nil
}
