package embedding

import (
	"strings"
	"sync"

	"github.com/siherrmann/retriever/helper"
)

// DefaultModel is used whenever a model identifier is empty or unknown
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// ModelInfo describes a registered embedding model: its output vector
// dimensionality and the prefix conventions it expects for queries and
// passages (empty prefix means no prefix is applied).
type ModelInfo struct {
	Dimension     int
	QueryPrefix   string
	PassagePrefix string
}

// Known sentence-transformer models. Unknown identifiers resolve to the
// DefaultModel entry rather than failing.
var models = map[string]ModelInfo{
	"sentence-transformers/all-MiniLM-L6-v2":  {Dimension: 384},
	"sentence-transformers/all-mpnet-base-v2": {Dimension: 768},
	"BAAI/bge-small-en-v1.5":                  {Dimension: 384, QueryPrefix: "Represent this sentence for searching relevant passages: "},
	"BAAI/bge-base-en-v1.5":                   {Dimension: 768, QueryPrefix: "Represent this sentence for searching relevant passages: "},
	"intfloat/e5-small-v2":                    {Dimension: 384, QueryPrefix: "query: ", PassagePrefix: "passage: "},
	"intfloat/e5-base-v2":                     {Dimension: 768, QueryPrefix: "query: ", PassagePrefix: "passage: "},
}

// Lookup resolves a model identifier to its registry entry
func Lookup(modelID string) ModelInfo {
	if info, ok := models[modelID]; ok {
		return info
	}
	return models[DefaultModel]
}

// VectorDimension returns the vector dimension for a model identifier
func VectorDimension(modelID string) int {
	return Lookup(modelID).Dimension
}

// ResolveQueryPrefix returns the query prefix: an explicit non-empty override
// wins, otherwise the registry default for the model.
func ResolveQueryPrefix(modelID string, override string) string {
	if override != "" {
		return override
	}
	return Lookup(modelID).QueryPrefix
}

// ResolvePassagePrefix returns the passage prefix: an explicit non-empty
// override wins, otherwise the registry default for the model.
func ResolvePassagePrefix(modelID string, override string) string {
	if override != "" {
		return override
	}
	return Lookup(modelID).PassagePrefix
}

// EncodeBatchFunc encodes a batch of texts into vectors
type EncodeBatchFunc func(texts []string) ([][]float32, error)

// LoaderFunc loads the encoder for a model identifier. Loading is assumed
// expensive; the Registry calls it at most once per model.
type LoaderFunc func(modelID string) (EncodeBatchFunc, error)

// Registry maps model identifiers to cached encoders. Encoders are loaded
// once and kept for the lifetime of the Registry, never evicted. Safe for
// concurrent use; a concurrent first use of the same model loads it exactly
// once.
type Registry struct {
	mu       sync.Mutex
	loader   LoaderFunc
	encoders map[string]EncodeBatchFunc
}

// NewRegistry creates a registry with the given encoder loader.
// Tests inject fake loaders here instead of touching global state.
func NewRegistry(loader LoaderFunc) *Registry {
	return &Registry{
		loader:   loader,
		encoders: make(map[string]EncodeBatchFunc),
	}
}

// encoder returns the cached encoder for modelID, loading it on first use.
// The lock is held across the load so two goroutines cannot load the same
// model twice.
func (r *Registry) encoder(modelID string) (EncodeBatchFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if encode, ok := r.encoders[modelID]; ok {
		return encode, nil
	}

	encode, err := r.loader(modelID)
	if err != nil {
		return nil, helper.NewError("load embedding model", err)
	}
	r.encoders[modelID] = encode
	return encode, nil
}

// resolveModelID maps empty identifiers to the default model
func resolveModelID(modelID string) string {
	if modelID == "" {
		return DefaultModel
	}
	return modelID
}

// EncodeQuery encodes a single query, prepending the resolved query prefix
func (r *Registry) EncodeQuery(query string, modelID string, queryPrefixOverride string) ([]float32, error) {
	modelID = resolveModelID(modelID)

	text := query
	if prefix := ResolveQueryPrefix(modelID, queryPrefixOverride); prefix != "" {
		text = strings.TrimSpace(prefix + query)
	}

	encode, err := r.encoder(modelID)
	if err != nil {
		return nil, err
	}

	vectors, err := encode([]string{text})
	if err != nil {
		return nil, helper.NewError("encode query", err)
	}
	if len(vectors) == 0 {
		return nil, helper.NewError("encode query", errNoEmbedding)
	}
	return vectors[0], nil
}

// EncodePassages encodes document chunks in one batch, prepending the
// resolved passage prefix for models that use one (e.g. E5).
func (r *Registry) EncodePassages(texts []string, modelID string, passagePrefixOverride string) ([][]float32, error) {
	modelID = resolveModelID(modelID)

	batch := texts
	if prefix := ResolvePassagePrefix(modelID, passagePrefixOverride); prefix != "" {
		batch = make([]string, len(texts))
		for i, text := range texts {
			batch[i] = strings.TrimSpace(prefix + text)
		}
	}

	encode, err := r.encoder(modelID)
	if err != nil {
		return nil, err
	}

	vectors, err := encode(batch)
	if err != nil {
		return nil, helper.NewError("encode passages", err)
	}
	return vectors, nil
}
