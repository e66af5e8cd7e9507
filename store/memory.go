package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

type memoryEntry struct {
	passage model.Passage
	vector  []float32
}

type memoryCollection struct {
	dimension int
	entries   []memoryEntry
}

// MemoryStore is an in-memory VectorStore. It keeps passages in insertion
// order, which gives Scroll a stable paging order. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// NewMemoryStore creates an empty in-memory vector store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &memoryCollection{dimension: dimension}
	}
	return nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection string, passages []model.Passage, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return ErrCollectionNotFound
	}

	for _, vector := range vectors {
		if len(vector) != coll.dimension {
			return ErrDimensionMismatch
		}
	}

	for i, passage := range passages {
		coll.entries = append(coll.entries, memoryEntry{
			passage: passage,
			vector:  vectors[i],
		})
	}
	return nil
}

func (s *MemoryStore) DeleteByDocument(ctx context.Context, collection string, documentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return ErrCollectionNotFound
	}

	kept := coll.entries[:0]
	for _, entry := range coll.entries {
		if entry.passage.DocumentID != documentID {
			kept = append(kept, entry)
		}
	}
	coll.entries = kept
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]model.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	hits := make([]model.SearchHit, 0, len(coll.entries))
	for _, entry := range coll.entries {
		hits = append(hits, model.SearchHit{
			Passage: entry.passage,
			Score:   float64(cosineSimilarity(vector, entry.vector)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *MemoryStore) Scroll(ctx context.Context, collection string, offset int, limit int) ([]model.Passage, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, ScrollDone, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, ScrollDone, ErrCollectionNotFound
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(coll.entries) {
		return nil, ScrollDone, nil
	}

	end := offset + limit
	if limit <= 0 || end > len(coll.entries) {
		end = len(coll.entries)
	}

	passages := make([]model.Passage, 0, end-offset)
	for _, entry := range coll.entries[offset:end] {
		passages = append(passages, entry.passage)
	}

	next := end
	if next >= len(coll.entries) {
		next = ScrollDone
	}
	return passages, next, nil
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
