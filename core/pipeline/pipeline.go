// Package pipeline turns extracted document text into passages ready for the
// vector store: chunking by strategy, keyword payload extraction and batched
// passage encoding.
package pipeline

import (
	"github.com/google/uuid"
	"github.com/siherrmann/retriever/core/embedding"
	"github.com/siherrmann/retriever/core/keywords"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// MaxKeywordsPerPassage caps the keyword payload stored per passage
const MaxKeywordsPerPassage = 300

// Pipeline combines chunking and embedding for ingestion
type Pipeline struct {
	Registry *embedding.Registry
}

// NewPipeline creates a new processing pipeline
func NewPipeline(registry *embedding.Registry) *Pipeline {
	return &Pipeline{Registry: registry}
}

// Process chunks the document content according to the effective config and
// encodes one vector per chunk with the collection's embedding model.
// Empty or whitespace-only content yields zero passages without error, the
// same as content that produces zero chunks.
func (p *Pipeline) Process(doc *model.Document, config model.RetrievalConfig) ([]model.Passage, [][]float32, error) {
	chunks := ChunkText(doc.Content, config.ChunkStrategy, config.ChunkSize, config.ChunkOverlap)
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	vectors, err := p.Registry.EncodePassages(chunks, config.EmbeddingModel, "")
	if err != nil {
		return nil, nil, helper.NewError("encode passages", err)
	}

	passages := make([]model.Passage, len(chunks))
	for i, chunk := range chunks {
		// Payload keywords are extracted without a stopword filter so the
		// stored set stays comprehensive for external inspection. Retrieval
		// recomputes matches against the text directly.
		payload := keywords.ExtractTerms(chunk, keywords.MinKeywordLength, nil)
		if len(payload) > MaxKeywordsPerPassage {
			payload = payload[:MaxKeywordsPerPassage]
		}

		passages[i] = model.Passage{
			ID:         uuid.New(),
			DocumentID: doc.RID,
			ChunkIndex: i,
			Text:       chunk,
			Source:     doc.Name,
			Keywords:   payload,
		}
	}

	return passages, vectors, nil
}
