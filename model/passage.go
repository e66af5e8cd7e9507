package model

import "github.com/google/uuid"

// Passage represents one indexed chunk of a document with its keyword payload.
// Passages are immutable once written; re-ingesting a document replaces all of
// its passages instead of updating them.
type Passage struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Source     string    `json:"source,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
}

// SearchHit is a passage returned by a similarity search with its score
type SearchHit struct {
	Passage Passage `json:"passage"`
	Score   float64 `json:"score"`
}

// Citation is a passage surfaced to the consumer as evidence for an answer
type Citation struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}
