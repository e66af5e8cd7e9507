// Package retriever provides hybrid retrieval-augmented search over document
// collections: ingestion chunks and embeds documents into a vector store,
// retrieval combines a keyword scan with vector similarity search, and an
// optional completion client turns retrieved context into grounded answers.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/retriever/core/embedding"
	"github.com/siherrmann/retriever/core/pipeline"
	"github.com/siherrmann/retriever/core/retrieval"
	"github.com/siherrmann/retriever/database"
	"github.com/siherrmann/retriever/extract"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/llm"
	"github.com/siherrmann/retriever/model"
	"github.com/siherrmann/retriever/store"
)

// Retriever provides a unified interface to ingestion, retrieval and answering
type Retriever struct {
	DB       *helper.Database
	Store    store.VectorStore
	Registry *embedding.Registry
	Pipeline *pipeline.Pipeline
	Engine   *retrieval.Engine
	// Completer generates answers from retrieved context. Optional, Answer
	// returns an error when it is unset.
	Completer llm.Completer
	// PromptTemplate overrides llm.DefaultPrompt when non-empty
	PromptTemplate string
	// Completion tunes completion calls made by Answer
	Completion llm.CompletionConfig
	// DeleteMustSucceed makes re-ingestion fail when the cleanup of previous
	// passages fails. By default cleanup is best effort, which can leave stale
	// passages of a previous ingestion behind.
	DeleteMustSucceed bool
	// Logging
	log *slog.Logger
}

// NewRetriever creates a Retriever backed by Postgres with pgvector.
// The embedding registry loads ONNX models on first use.
func NewRetriever(config *helper.DatabaseConfiguration) (*Retriever, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("retriever", config, logger)

	// force=false to not reload SQL functions if they already exist
	passages, err := database.NewPassagesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create passages handler", err)
	}

	registry := embedding.NewRegistry(embedding.DefaultLoader())

	retriever := newRetriever(passages, registry, logger)
	retriever.DB = db
	return retriever, nil
}

// NewRetrieverWithStore creates a Retriever on top of an injected vector store,
// e.g. store.NewMemoryStore() for tests or small in-process setups.
func NewRetrieverWithStore(vectorStore store.VectorStore, registry *embedding.Registry) *Retriever {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return newRetriever(vectorStore, registry, logger)
}

func newRetriever(vectorStore store.VectorStore, registry *embedding.Registry, logger *slog.Logger) *Retriever {
	return &Retriever{
		Store:    vectorStore,
		Registry: registry,
		Pipeline: pipeline.NewPipeline(registry),
		Engine:   retrieval.NewEngine(vectorStore, registry, logger),
		log:      logger,
	}
}

// Close closes the database connection
func (r *Retriever) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// SetCompleter sets the completion client used by Answer
func (r *Retriever) SetCompleter(completer llm.Completer) {
	r.Completer = completer
}

// IngestDocument ingests a document into a collection by:
// 1. Resolving the effective configuration (document over collection over defaults)
// 2. Ensuring the collection exists with the embedding model's dimension
// 3. Deleting passages of any previous ingestion of the same document
// 4. Chunking, extracting keywords and embedding the content
// 5. Upserting the new passages
// The document's status tracks the outcome: completed on success (including
// zero passages for empty content), failed with a bounded error message
// otherwise. Returns the number of passages inserted.
func (r *Retriever) IngestDocument(ctx context.Context, doc *model.Document, collection *model.Collection) (int, error) {
	if doc == nil {
		return 0, helper.NewError("ingest document", fmt.Errorf("document is nil"))
	}
	if collection == nil || collection.Name == "" {
		return 0, helper.NewError("ingest document", fmt.Errorf("collection name is empty"))
	}

	// Resolved fresh on every call because stored configuration may change
	config := model.ResolveEffectiveConfig(doc.Config, collection.Config)
	doc.MarkProcessing()

	dimension := embedding.VectorDimension(config.EmbeddingModel)
	err := r.Store.EnsureCollection(ctx, collection.Name, dimension)
	if err != nil {
		doc.MarkFailed(err)
		return 0, helper.NewError("ensure collection", err)
	}

	// Delete-then-insert keeps re-ingestion idempotent. Cleanup failure is
	// tolerated unless DeleteMustSucceed is set.
	err = r.Store.DeleteByDocument(ctx, collection.Name, doc.RID)
	if err != nil {
		if r.DeleteMustSucceed {
			doc.MarkFailed(err)
			return 0, helper.NewError("delete previous passages", err)
		}
		r.log.Warn("Could not delete previous passages",
			slog.String("document_rid", doc.RID.String()),
			slog.String("collection", collection.Name),
			slog.String("error", err.Error()))
	}

	if strings.TrimSpace(doc.Content) == "" {
		doc.MarkCompleted()
		r.log.Info("Ingested empty document",
			slog.String("document_rid", doc.RID.String()),
			slog.String("collection", collection.Name))
		return 0, nil
	}

	passages, vectors, err := r.Pipeline.Process(doc, config)
	if err != nil {
		doc.MarkFailed(err)
		return 0, helper.NewError("process document", err)
	}
	if len(passages) == 0 {
		doc.MarkCompleted()
		return 0, nil
	}

	err = r.Store.Upsert(ctx, collection.Name, passages, vectors)
	if err != nil {
		doc.MarkFailed(err)
		return 0, helper.NewError("upsert passages", err)
	}

	doc.MarkCompleted()
	r.log.Info("Ingested document",
		slog.String("document_rid", doc.RID.String()),
		slog.String("collection", collection.Name),
		slog.Int("num_passages", len(passages)))

	return len(passages), nil
}

// IngestFile extracts text from the file at path and ingests it as a new
// document named after the file. Returns the document and the number of
// passages inserted.
func (r *Retriever) IngestFile(ctx context.Context, path string, collection *model.Collection) (*model.Document, int, error) {
	content, err := extract.Text(path)
	if err != nil {
		return nil, 0, helper.NewError("extract text", err)
	}

	doc := model.NewDocument(filepath.Base(path), content)
	doc.Source = path

	inserted, err := r.IngestDocument(ctx, doc, collection)
	if err != nil {
		return doc, 0, err
	}
	return doc, inserted, nil
}

// Retrieve runs hybrid retrieval for a question against a collection and
// returns the context passages with their citations in rank order
func (r *Retriever) Retrieve(ctx context.Context, collection *model.Collection, question string) ([]string, []model.Citation, error) {
	if collection == nil || collection.Name == "" {
		return nil, nil, helper.NewError("retrieve", fmt.Errorf("collection name is empty"))
	}

	config := model.ResolveEffectiveConfig(nil, collection.Config)
	return r.Engine.Retrieve(ctx, collection.Name, question, config)
}

// Answer retrieves context for the question and asks the completion client for
// a grounded answer. History is rendered into the prompt as a memory block.
// A completion failure does not lose the retrieval work: the returned answer
// carries the error text and the citations are kept.
func (r *Retriever) Answer(ctx context.Context, collection *model.Collection, question string, history []model.ChatMessage) (string, []model.Citation, error) {
	if r.Completer == nil {
		return "", nil, helper.NewError("answer", fmt.Errorf("completion client not set, use SetCompleter() first"))
	}

	contextPassages, citations, err := r.Retrieve(ctx, collection, question)
	if err != nil {
		return "", nil, err
	}

	contextText := llm.NoContextFound
	if len(contextPassages) > 0 {
		contextText = strings.Join(contextPassages, "\n\n")
	}

	prompt := llm.BuildPrompt(r.PromptTemplate, contextText, question, llm.MemoryBlock(history))

	answer, err := r.Completer.Complete(ctx, prompt, r.Completion)
	if err != nil {
		r.log.Warn("Completion failed",
			slog.String("collection", collection.Name),
			slog.String("error", err.Error()))
		return "Error generating response: " + err.Error(), citations, nil
	}
	return answer, citations, nil
}
