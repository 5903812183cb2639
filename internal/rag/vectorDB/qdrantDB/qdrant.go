package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/internal/domain/ragErrors"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

type ClientHolder struct {
	QObj       *qdrant.Client
	collection string
	metric     string
	logger     *logger_i.Logger
}

// NewClient connects to Qdrant over gRPC. The distance metric is read from
// the collection by CheckReady or set by CreateCollection.
func NewClient(host string, port int, collection string) (*ClientHolder, error) {
	if collection == "" {
		return nil, errors.New("empty collection name")
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}
	return &ClientHolder{
		QObj:       client,
		collection: collection,
		logger:     logger_i.NewLogger("Qdrant").With("collection", collection),
	}, nil
}

func (db *ClientHolder) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

// CheckReady fails with ErrIndexNotFound when the server is down or the
// collection was never fully ingested, and with ErrIndexCorrupt when it was
// built by another embedding model. On success the stored metric is adopted.
func (db *ClientHolder) CheckReady(ctx context.Context, modelInfo string) error {
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return mapError(err)
	}
	if !exists {
		return fmt.Errorf("%w: qdrant collection %s", ragErrors.ErrIndexNotFound, db.collection)
	}

	info, err := db.QObj.GetCollectionInfo(ctx, db.collection)
	if err != nil {
		return mapError(err)
	}
	metric, err := checkMetadata(info.GetConfig().GetMetadata(), modelInfo)
	if err != nil {
		return fmt.Errorf("qdrant collection %s: %w", db.collection, err)
	}
	db.metric = metric
	db.logger.Info("Collection ready", "metric", metric, "points", info.GetPointsCount())
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, vectorFloat []float32, k int) (commonModels.RetrievalResult, error) {
	loggr := db.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vectorFloat...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, mapError(err)
	}

	matches := fromHits(result, db.metric)
	loggr.Debug("Found matches", "count", len(matches))
	return matches, nil
}

// CreateCollection replaces the collection with an empty one stamped with the
// model and metric. It stays unreadable until MarkComplete.
func (db *ClientHolder) CreateCollection(ctx context.Context, dimension int, metric, modelInfo string) error {
	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return mapError(err)
	}
	if exists {
		db.logger.Info("Replacing existing collection")
		if err := db.QObj.DeleteCollection(ctx, db.collection); err != nil {
			return fmt.Errorf("qdrant delete collection: %w", err)
		}
	}

	db.metric = metric
	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: distance(metric),
		}),
		Metadata: collectionMetadata(dimension, metric, modelInfo),
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

// MarkComplete records the chunk count once every batch is upserted.
func (db *ClientHolder) MarkComplete(ctx context.Context, chunks int) error {
	err := db.QObj.UpdateCollection(ctx, &qdrant.UpdateCollection{
		CollectionName: db.collection,
		Metadata:       completionMetadata(chunks),
	})
	if err != nil {
		return fmt.Errorf("qdrant update collection metadata: %w", err)
	}
	return nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, chunks []commonModels.DocChunk, vectors [][]float32) error {
	points, err := toPoints(chunks, vectors)
	if err != nil {
		return err
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

var _ vectorDB.DataProcessor = (*ClientHolder)(nil)
