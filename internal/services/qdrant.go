package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

type qdrantIndexFactory struct {
	client *qdrant.Client
	prefix string
	logger *zap.Logger
}

// NewQdrantIndexFactory connects to Qdrant over gRPC. Every index it creates
// lives in its own collection that is dropped when the index is closed.
func NewQdrantIndexFactory(urlStr, apiKey, collectionPrefix string, logger *zap.Logger) (IndexFactory, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if collectionPrefix == "" {
		collectionPrefix = "cv_align_eval"
	}

	return &qdrantIndexFactory{
		client: client,
		prefix: collectionPrefix,
		logger: logger.With(zap.String("component", "qdrant")),
	}, nil
}

// NewIndex implements IndexFactory.
func (f *qdrantIndexFactory) NewIndex(ctx context.Context) (VectorIndex, error) {
	name := fmt.Sprintf("%s_%s", f.prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
	return &qdrantIndex{client: f.client, collectionName: name, logger: f.logger}, nil
}

type qdrantIndex struct {
	client         *qdrant.Client
	collectionName string
	created        bool
	logger         *zap.Logger
}

// Add implements VectorIndex.
func (q *qdrantIndex) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	if !q.created {
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: q.collectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(vectors[0])),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		q.created = true
		q.logger.Debug("collection created", zap.String("collection", q.collectionName))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(c.Index)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_index": int64(c.Index),
				"offset":      int64(c.Offset),
				"length":      int64(c.Length),
				"text":        c.Text,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search implements VectorIndex.
func (q *qdrantIndex) Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	if !q.created {
		return nil, nil
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]ScoredChunk, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		results = append(results, ScoredChunk{
			Chunk: Chunk{
				Index:  int(payload["chunk_index"].GetIntegerValue()),
				Offset: int(payload["offset"].GetIntegerValue()),
				Length: int(payload["length"].GetIntegerValue()),
				Text:   payload["text"].GetStringValue(),
			},
			Score: point.Score,
		})
	}

	return rankTopK(results, k), nil
}

// Close implements VectorIndex.
func (q *qdrantIndex) Close(ctx context.Context) error {
	if !q.created {
		return nil
	}
	if err := q.client.DeleteCollection(ctx, q.collectionName); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", q.collectionName, err)
	}
	q.created = false
	return nil
}
