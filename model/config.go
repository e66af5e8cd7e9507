package model

// Chunk strategy identifiers
const (
	ChunkStrategyFixed     = "fixed"
	ChunkStrategyParagraph = "paragraph"
	ChunkStrategySentence  = "sentence"
	ChunkStrategyRecursive = "recursive"
)

// Defaults applied when neither document nor collection configuration sets a field
const (
	DefaultChunkStrategy = ChunkStrategyFixed
	DefaultChunkSize     = 512
	DefaultChunkOverlap  = 50
	DefaultTopK          = 10
	MaxTopK              = 20
)

// RetrievalConfig configures chunking and retrieval for a collection or a
// single document. Zero values mean "inherit from the next level up".
type RetrievalConfig struct {
	ChunkStrategy        string `json:"chunk_strategy,omitempty"`
	ChunkSize            int    `json:"chunk_size,omitempty"`
	ChunkOverlap         int    `json:"chunk_overlap,omitempty"`
	EmbeddingModel       string `json:"embedding_model,omitempty"`
	EmbeddingQueryPrefix string `json:"embedding_query_prefix,omitempty"`
	TopK                 int    `json:"top_k,omitempty"`
}

// DefaultRetrievalConfig returns the hard-coded application defaults.
// EmbeddingModel stays empty, the embedding registry resolves empty or
// unknown identifiers to its default model.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		ChunkStrategy: DefaultChunkStrategy,
		ChunkSize:     DefaultChunkSize,
		ChunkOverlap:  DefaultChunkOverlap,
		TopK:          DefaultTopK,
	}
}

// ResolveEffectiveConfig merges configuration field by field:
// document overrides collection overrides defaults. It is resolved fresh on
// every ingestion and retrieval call because stored configuration may change
// between calls.
func ResolveEffectiveConfig(documentConfig *RetrievalConfig, collectionConfig *RetrievalConfig) RetrievalConfig {
	effective := DefaultRetrievalConfig()
	for _, override := range []*RetrievalConfig{collectionConfig, documentConfig} {
		if override == nil {
			continue
		}
		if override.ChunkStrategy != "" {
			effective.ChunkStrategy = override.ChunkStrategy
		}
		if override.ChunkSize > 0 {
			effective.ChunkSize = override.ChunkSize
		}
		if override.ChunkOverlap > 0 {
			effective.ChunkOverlap = override.ChunkOverlap
		}
		if override.TopK > 0 {
			effective.TopK = override.TopK
		}
	}

	// Embedding model and query prefix come from the collection only, so one
	// collection always has one vector dimensionality.
	effective.EmbeddingModel, effective.EmbeddingQueryPrefix = ResolveEmbeddingConfig(collectionConfig)

	if effective.TopK > MaxTopK {
		effective.TopK = MaxTopK
	}

	return effective
}

// ResolveEmbeddingConfig resolves the embedding model and query prefix from
// the collection configuration only. Document-level overrides are ignored.
func ResolveEmbeddingConfig(collectionConfig *RetrievalConfig) (modelID string, queryPrefix string) {
	if collectionConfig == nil {
		return "", ""
	}
	return collectionConfig.EmbeddingModel, collectionConfig.EmbeddingQueryPrefix
}
