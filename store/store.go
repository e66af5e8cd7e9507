// Package store defines the vector store consumed by ingestion and retrieval
// and provides an in-memory implementation. The database package provides a
// pgvector-backed implementation of the same interface.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/siherrmann/retriever/model"
)

var (
	// ErrCollectionNotFound is returned when a referenced collection does not exist
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDimensionMismatch is returned when a vector's length does not match
	// the collection's configured dimension. Vectors are never truncated or
	// padded to fit.
	ErrDimensionMismatch = errors.New("vector dimension does not match collection dimension")
)

// ScrollDone signals that a scroll reached the end of the collection
const ScrollDone = -1

// VectorStore stores passages with their vectors, one namespace per collection
type VectorStore interface {
	// EnsureCollection creates the collection with the given vector dimension
	// if it does not exist yet
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// Upsert inserts passages with their vectors. Vectors must match the
	// collection dimension, len(vectors) must equal len(passages).
	Upsert(ctx context.Context, collection string, passages []model.Passage, vectors [][]float32) error

	// DeleteByDocument removes all passages belonging to the given document
	DeleteByDocument(ctx context.Context, collection string, documentID uuid.UUID) error

	// Search returns the limit nearest passages to the query vector, ranked
	// by cosine similarity descending
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]model.SearchHit, error)

	// Scroll pages through all passages of a collection in stable order.
	// It returns the page starting at offset and the offset of the next page,
	// or ScrollDone when the collection is exhausted.
	Scroll(ctx context.Context, collection string, offset int, limit int) ([]model.Passage, int, error)
}
