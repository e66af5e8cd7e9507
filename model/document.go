package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document through the ingestion lifecycle
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// MaxErrorMessageLength bounds the error message stored on a failed document
const MaxErrorMessageLength = 2000

// Document represents a source document to ingest into a collection.
// Content holds the already extracted text; extraction itself happens outside
// the core (see the extract package).
type Document struct {
	RID          uuid.UUID        `json:"rid"`
	Name         string           `json:"name"`
	Source       string           `json:"source,omitempty"`
	Content      string           `json:"content,omitempty"`
	Config       *RetrievalConfig `json:"config,omitempty"`
	Status       DocumentStatus   `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewDocument creates a pending document with a fresh RID
func NewDocument(name string, content string) *Document {
	return &Document{
		RID:       uuid.New(),
		Name:      name,
		Content:   content,
		Status:    DocumentStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// MarkProcessing transitions the document into the processing state
func (d *Document) MarkProcessing() {
	d.Status = DocumentStatusProcessing
	d.ErrorMessage = ""
	d.UpdatedAt = time.Now()
}

// MarkCompleted transitions the document into the completed state
func (d *Document) MarkCompleted() {
	d.Status = DocumentStatusCompleted
	d.ErrorMessage = ""
	d.UpdatedAt = time.Now()
}

// MarkFailed transitions the document into the failed state with a bounded
// error message so oversized upstream errors cannot blow up the record
func (d *Document) MarkFailed(err error) {
	d.Status = DocumentStatusFailed
	msg := err.Error()
	if len(msg) > MaxErrorMessageLength {
		msg = msg[:MaxErrorMessageLength]
	}
	d.ErrorMessage = msg
	d.UpdatedAt = time.Now()
}
