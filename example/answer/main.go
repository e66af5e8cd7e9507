package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/retriever"
	"github.com/siherrmann/retriever/core/embedding"
	"github.com/siherrmann/retriever/llm"
	"github.com/siherrmann/retriever/model"
	"github.com/siherrmann/retriever/store"
)

func main() {
	// In-memory store, no database needed. Embeddings still run locally
	// through the default ONNX loader.
	registry := embedding.NewRegistry(embedding.DefaultLoader())
	r := retriever.NewRetrieverWithStore(store.NewMemoryStore(), registry)

	// Answers are generated by a local Ollama server
	r.SetCompleter(llm.NewOllamaClient("", "llama3.2"))

	ctx := context.Background()
	collection := &model.Collection{Name: "support"}

	doc := model.NewDocument("faq.txt",
		"The warranty covers accidental damage for two years.\n\n"+
			"Shipping takes five business days within the EU.\n\n"+
			"Returns are free within thirty days of delivery.")
	if _, err := r.IngestDocument(ctx, doc, collection); err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}

	history := []model.ChatMessage{
		{Role: "user", Content: "I bought a phone from you last month."},
		{Role: "assistant", Content: "Thanks, how can I help you with it?"},
	}

	answer, citations, err := r.Answer(ctx, collection, "What does the warranty cover?", history)
	if err != nil {
		log.Fatalf("Failed to answer: %v", err)
	}

	fmt.Printf("Answer: %s\n\nSources:\n", answer)
	for _, citation := range citations {
		fmt.Printf("- [%.3f] %s\n", citation.Score, citation.Source)
	}
}
