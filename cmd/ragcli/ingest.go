package main

import (
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/flatIndex"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	var dataDir, storeDir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index every supported document under the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if dataDir == "" {
				dataDir = a.cfg.DataDir
			}
			if storeDir == "" {
				storeDir = a.cfg.VectorStoreDir
			}

			splitter, err := ingest.NewSplitter(a.cfg.ChunkSize, a.cfg.ChunkOverlap)
			if err != nil {
				return err
			}
			metric, err := flatIndex.ParseMetric(a.cfg.Metric)
			if err != nil {
				return err
			}
			embedder, closeEmbedder, err := buildEmbedder(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeEmbedder()

			pipelineCfg := ingest.PipelineConfig{
				Loader:    ingest.NewLoader(),
				Splitter:  splitter,
				Embedder:  embedder,
				BatchSize: a.cfg.EmbedBatchSize,
				Metric:    metric,
				Progress:  out,
			}
			if a.cfg.VectorBackend == config.VectorBackendQdrant {
				db, err := qdrantDB.NewClient(a.cfg.QdrantHost, a.cfg.QdrantPort, a.cfg.QdrantCollection)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				pipelineCfg.Mirror = db
			}

			report, err := ingest.NewPipeline(pipelineCfg).Run(ctx, dataDir, storeDir)
			for _, skipped := range report.Skipped {
				fmt.Fprintf(out, "Ignorado: %s (%v)\n", skipped.Path, skipped.Err)
			}
			if errors.Is(err, ragErrors.ErrNoDocuments) {
				a.logger.Warn("No documents found, index left untouched", "dataDir", dataDir)
				fmt.Fprintf(out, "Nenhum documento encontrado em %s.\n", dataDir)
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Indice criado em %s: %d documentos, %d chunks, dimensao %d.\n",
				storeDir, report.Documents, report.Chunks, report.Dimension)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "corpus directory (default DATA_DIR)")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "index directory (default VECTOR_STORE_DIR)")
	return cmd
}
