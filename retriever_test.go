package retriever

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/siherrmann/retriever/core/embedding"
	"github.com/siherrmann/retriever/llm"
	"github.com/siherrmann/retriever/model"
	"github.com/siherrmann/retriever/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constVectorLoader encodes every text to the same vector of the given
// dimension, enough to exercise ingestion and the keyword branch.
func constVectorLoader(dimension int) embedding.LoaderFunc {
	return func(modelID string) (embedding.EncodeBatchFunc, error) {
		return func(texts []string) ([][]float32, error) {
			vectors := make([][]float32, len(texts))
			for i := range texts {
				vector := make([]float32, dimension)
				vector[0] = 1
				vectors[i] = vector
			}
			return vectors, nil
		}, nil
	}
}

type fakeCompleter struct {
	lastPrompt string
	reply      string
	err        error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, config llm.CompletionConfig) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestRetriever() *Retriever {
	registry := embedding.NewRegistry(constVectorLoader(embedding.VectorDimension("")))
	return NewRetrieverWithStore(store.NewMemoryStore(), registry)
}

func countPassages(t *testing.T, vectorStore store.VectorStore, collection string) int {
	t.Helper()
	count := 0
	offset := 0
	for {
		page, next, err := vectorStore.Scroll(context.Background(), collection, offset, 100)
		require.NoError(t, err)
		count += len(page)
		if next == store.ScrollDone {
			break
		}
		offset = next
	}
	return count
}

func TestIngestDocument(t *testing.T) {
	ctx := context.Background()
	collection := &model.Collection{Name: "docs"}

	t.Run("Ingests a document into passages", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("report.txt", strings.Repeat("Revenue grew steadily over the year. ", 40))

		inserted, err := retriever.IngestDocument(ctx, doc, collection)

		require.NoError(t, err)
		assert.Greater(t, inserted, 1)
		assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
		assert.Empty(t, doc.ErrorMessage)
		assert.Equal(t, inserted, countPassages(t, retriever.Store, "docs"))
	})

	t.Run("Re-ingesting replaces previous passages", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("report.txt", strings.Repeat("Revenue grew steadily over the year. ", 40))

		_, err := retriever.IngestDocument(ctx, doc, collection)
		require.NoError(t, err)

		doc.Content = strings.Repeat("Costs were cut across all departments. ", 20)
		inserted, err := retriever.IngestDocument(ctx, doc, collection)
		require.NoError(t, err)

		assert.Equal(t, inserted, countPassages(t, retriever.Store, "docs"))
	})

	t.Run("Re-ingesting an emptied document removes its previous passages", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("report.txt", strings.Repeat("Revenue grew steadily over the year. ", 40))

		_, err := retriever.IngestDocument(ctx, doc, collection)
		require.NoError(t, err)
		require.Greater(t, countPassages(t, retriever.Store, "docs"), 0)

		doc.Content = ""
		inserted, err := retriever.IngestDocument(ctx, doc, collection)

		require.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
		assert.Equal(t, 0, countPassages(t, retriever.Store, "docs"))
	})

	t.Run("Empty content completes with zero passages", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("empty.txt", "   ")

		inserted, err := retriever.IngestDocument(ctx, doc, collection)

		require.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
	})

	t.Run("Processing failure marks the document failed", func(t *testing.T) {
		registry := embedding.NewRegistry(func(modelID string) (embedding.EncodeBatchFunc, error) {
			return nil, fmt.Errorf("model download failed")
		})
		retriever := NewRetrieverWithStore(store.NewMemoryStore(), registry)
		doc := model.NewDocument("report.txt", "Some content to ingest.")

		_, err := retriever.IngestDocument(ctx, doc, collection)

		require.Error(t, err)
		assert.Equal(t, model.DocumentStatusFailed, doc.Status)
		assert.Contains(t, doc.ErrorMessage, "model download failed")
	})

	t.Run("Missing collection name fails", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("report.txt", "Some content.")

		_, err := retriever.IngestDocument(ctx, doc, &model.Collection{})

		assert.Error(t, err)
	})
}

func TestRetrieverRetrieve(t *testing.T) {
	ctx := context.Background()
	collection := &model.Collection{Name: "docs"}

	t.Run("Returns context passages with citations", func(t *testing.T) {
		retriever := newTestRetriever()
		doc := model.NewDocument("manual.txt",
			"The warranty covers accidental damage.\n\nShipping takes five business days.")
		doc.Config = &model.RetrievalConfig{ChunkStrategy: model.ChunkStrategyParagraph, ChunkSize: 60}

		_, err := retriever.IngestDocument(ctx, doc, collection)
		require.NoError(t, err)

		passages, citations, err := retriever.Retrieve(ctx, collection, "What does the warranty cover?")

		require.NoError(t, err)
		require.NotEmpty(t, passages)
		assert.Contains(t, passages[0], "warranty")
		require.NotEmpty(t, citations)
		assert.Equal(t, "manual.txt", citations[0].Source)
	})

	t.Run("Missing collection name fails", func(t *testing.T) {
		retriever := newTestRetriever()
		_, _, err := retriever.Retrieve(ctx, nil, "any question")
		assert.Error(t, err)
	})
}

func TestAnswer(t *testing.T) {
	ctx := context.Background()
	collection := &model.Collection{Name: "docs"}

	ingest := func(t *testing.T, retriever *Retriever) {
		doc := model.NewDocument("manual.txt", "The warranty covers accidental damage.")
		_, err := retriever.IngestDocument(ctx, doc, collection)
		require.NoError(t, err)
	}

	t.Run("Builds a grounded prompt and returns the completion", func(t *testing.T) {
		retriever := newTestRetriever()
		ingest(t, retriever)
		completer := &fakeCompleter{reply: "The warranty covers accidental damage."}
		retriever.SetCompleter(completer)

		answer, citations, err := retriever.Answer(ctx, collection, "What does the warranty cover?", nil)

		require.NoError(t, err)
		assert.Equal(t, "The warranty covers accidental damage.", answer)
		assert.NotEmpty(t, citations)
		assert.Contains(t, completer.lastPrompt, "What does the warranty cover?")
		assert.Contains(t, completer.lastPrompt, "The warranty covers accidental damage.")
	})

	t.Run("History is rendered into the prompt", func(t *testing.T) {
		retriever := newTestRetriever()
		ingest(t, retriever)
		completer := &fakeCompleter{reply: "ok"}
		retriever.SetCompleter(completer)

		history := []model.ChatMessage{
			{Role: "user", Content: "Tell me about the product."},
			{Role: "assistant", Content: "It is a phone."},
		}
		_, _, err := retriever.Answer(ctx, collection, "What about the warranty?", history)

		require.NoError(t, err)
		assert.Contains(t, completer.lastPrompt, "Previous conversation:")
		assert.Contains(t, completer.lastPrompt, "assistant: It is a phone.")
	})

	t.Run("Completion failure keeps the citations", func(t *testing.T) {
		retriever := newTestRetriever()
		ingest(t, retriever)
		retriever.SetCompleter(&fakeCompleter{err: fmt.Errorf("connection refused")})

		answer, citations, err := retriever.Answer(ctx, collection, "What does the warranty cover?", nil)

		require.NoError(t, err)
		assert.Contains(t, answer, "Error generating response:")
		assert.Contains(t, answer, "connection refused")
		assert.NotEmpty(t, citations)
	})

	t.Run("Empty retrieval uses the no context placeholder", func(t *testing.T) {
		retriever := newTestRetriever()
		completer := &fakeCompleter{reply: "I do not know."}
		retriever.SetCompleter(completer)

		_, citations, err := retriever.Answer(ctx, collection, "Anything at all?", nil)

		require.NoError(t, err)
		assert.Empty(t, citations)
		assert.Contains(t, completer.lastPrompt, llm.NoContextFound)
	})

	t.Run("Missing completer fails", func(t *testing.T) {
		retriever := newTestRetriever()
		_, _, err := retriever.Answer(ctx, collection, "any question", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "completion client not set")
	})
}
