package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

const DefaultTopK = 5

// ScoredChunk is one retrieval hit with its similarity to the query.
type ScoredChunk struct {
	Chunk
	Score float32
}

// VectorIndex holds the chunk vectors of a single evaluation.
type VectorIndex interface {
	Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error)
	Close(ctx context.Context) error
}

// IndexFactory creates a fresh, empty index for every evaluation.
type IndexFactory interface {
	NewIndex(ctx context.Context) (VectorIndex, error)
}

// Retriever embeds chunks into a per-evaluation index and returns the
// chunks nearest to the query.
type Retriever interface {
	Retrieve(ctx context.Context, chunks []Chunk, query string, k int) ([]ScoredChunk, error)
}

type retriever struct {
	embedder Embedder
	indexes  IndexFactory
	logger   *zap.Logger
}

func NewRetriever(embedder Embedder, indexes IndexFactory, logger *zap.Logger) Retriever {
	if indexes == nil {
		indexes = NewMemoryIndexFactory()
	}
	return &retriever{
		embedder: embedder,
		indexes:  indexes,
		logger:   logger.With(zap.String("component", "retriever")),
	}
}

// Retrieve implements Retriever.
func (r *retriever) Retrieve(ctx context.Context, chunks []Chunk, query string, k int) (results []ScoredChunk, err error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}
	if k <= 0 {
		k = DefaultTopK
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, wrapEmbeddingErr(err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingProvider, len(vectors), len(chunks))
	}

	queryVectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, wrapEmbeddingErr(err)
	}
	if len(queryVectors) != 1 {
		return nil, fmt.Errorf("%w: query embedding missing", ErrEmbeddingProvider)
	}

	index, err := r.indexes.NewIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	defer func() {
		if cerr := index.Close(context.WithoutCancel(ctx)); cerr != nil {
			r.logger.Warn("failed to release vector index", zap.Error(cerr))
		}
	}()

	if err := index.Add(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	results, err = index.Search(ctx, queryVectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	r.logger.Debug("retrieved chunks", zap.Int("chunks", len(chunks)), zap.Int("hits", len(results)))
	return results, nil
}

func wrapEmbeddingErr(err error) error {
	if errors.Is(err, ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEmbeddingProvider, err)
}

type memoryIndexFactory struct{}

// NewMemoryIndexFactory returns a factory for in-process cosine indexes.
func NewMemoryIndexFactory() IndexFactory {
	return memoryIndexFactory{}
}

// NewIndex implements IndexFactory.
func (memoryIndexFactory) NewIndex(ctx context.Context) (VectorIndex, error) {
	return &memoryIndex{}, nil
}

type memoryEntry struct {
	chunk  Chunk
	vector []float32
	norm   float64
}

type memoryIndex struct {
	entries []memoryEntry
}

// Add implements VectorIndex.
func (m *memoryIndex) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	for i, c := range chunks {
		if len(m.entries) > 0 && len(vectors[i]) != len(m.entries[0].vector) {
			return fmt.Errorf("vector dimension mismatch at chunk %d", c.Index)
		}
		m.entries = append(m.entries, memoryEntry{chunk: c, vector: vectors[i], norm: norm(vectors[i])})
	}
	return nil
}

// Search implements VectorIndex. Equal scores keep original chunk order.
func (m *memoryIndex) Search(ctx context.Context, query []float32, k int) ([]ScoredChunk, error) {
	if len(m.entries) > 0 && len(query) != len(m.entries[0].vector) {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), len(m.entries[0].vector))
	}

	qnorm := norm(query)
	results := make([]ScoredChunk, len(m.entries))
	for i, e := range m.entries {
		results[i] = ScoredChunk{Chunk: e.chunk, Score: cosine(query, e.vector, qnorm, e.norm)}
	}

	return rankTopK(results, k), nil
}

// Close implements VectorIndex.
func (m *memoryIndex) Close(ctx context.Context) error {
	m.entries = nil
	return nil
}

func rankTopK(results []ScoredChunk, k int) []ScoredChunk {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, anorm, bnorm float64) float32 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (anorm * bnorm))
}
