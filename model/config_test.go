package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEffectiveConfig(t *testing.T) {
	t.Run("No overrides gives the defaults", func(t *testing.T) {
		effective := ResolveEffectiveConfig(nil, nil)

		assert.Equal(t, ChunkStrategyFixed, effective.ChunkStrategy)
		assert.Equal(t, DefaultChunkSize, effective.ChunkSize)
		assert.Equal(t, DefaultChunkOverlap, effective.ChunkOverlap)
		assert.Equal(t, DefaultTopK, effective.TopK)
		assert.Empty(t, effective.EmbeddingModel)
	})

	t.Run("Collection config overrides the defaults", func(t *testing.T) {
		collectionConfig := &RetrievalConfig{ChunkStrategy: ChunkStrategyParagraph, ChunkSize: 1000}

		effective := ResolveEffectiveConfig(nil, collectionConfig)

		assert.Equal(t, ChunkStrategyParagraph, effective.ChunkStrategy)
		assert.Equal(t, 1000, effective.ChunkSize)
		assert.Equal(t, DefaultChunkOverlap, effective.ChunkOverlap)
	})

	t.Run("Document config overrides the collection field by field", func(t *testing.T) {
		collectionConfig := &RetrievalConfig{ChunkStrategy: ChunkStrategyParagraph, ChunkSize: 1000, TopK: 5}
		documentConfig := &RetrievalConfig{ChunkSize: 256}

		effective := ResolveEffectiveConfig(documentConfig, collectionConfig)

		assert.Equal(t, 256, effective.ChunkSize)
		assert.Equal(t, ChunkStrategyParagraph, effective.ChunkStrategy)
		assert.Equal(t, 5, effective.TopK)
	})

	t.Run("Zero values inherit instead of overriding", func(t *testing.T) {
		collectionConfig := &RetrievalConfig{ChunkSize: 1000}
		documentConfig := &RetrievalConfig{ChunkSize: 0, ChunkOverlap: 0}

		effective := ResolveEffectiveConfig(documentConfig, collectionConfig)

		assert.Equal(t, 1000, effective.ChunkSize)
		assert.Equal(t, DefaultChunkOverlap, effective.ChunkOverlap)
	})

	t.Run("Embedding model comes from the collection only", func(t *testing.T) {
		collectionConfig := &RetrievalConfig{EmbeddingModel: "intfloat/e5-small-v2"}
		documentConfig := &RetrievalConfig{EmbeddingModel: "sentence-transformers/all-mpnet-base-v2"}

		effective := ResolveEffectiveConfig(documentConfig, collectionConfig)

		assert.Equal(t, "intfloat/e5-small-v2", effective.EmbeddingModel)
	})

	t.Run("TopK is clamped to the maximum", func(t *testing.T) {
		effective := ResolveEffectiveConfig(&RetrievalConfig{TopK: 100}, nil)
		assert.Equal(t, MaxTopK, effective.TopK)
	})
}

func TestResolveEmbeddingConfig(t *testing.T) {
	t.Run("Nil collection config resolves empty", func(t *testing.T) {
		modelID, queryPrefix := ResolveEmbeddingConfig(nil)
		assert.Empty(t, modelID)
		assert.Empty(t, queryPrefix)
	})

	t.Run("Collection config passes through", func(t *testing.T) {
		modelID, queryPrefix := ResolveEmbeddingConfig(&RetrievalConfig{
			EmbeddingModel:       "intfloat/e5-small-v2",
			EmbeddingQueryPrefix: "query: ",
		})
		assert.Equal(t, "intfloat/e5-small-v2", modelID)
		assert.Equal(t, "query: ", queryPrefix)
	})
}
