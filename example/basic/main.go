package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/retriever"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

const sampleContent = `This is a sample document about hybrid retrieval.

Hybrid retrieval combines keyword matching with vector similarity search.
Keyword matching guarantees that passages naming the asked-about terms are found,
while vector search surfaces semantically related passages that use different words.

PostgreSQL with the pgvector extension stores the passage embeddings.
Cosine similarity ranks the nearest passages for every question.

Merging both result sets by keyword match count first and fused score second
gives answers grounded in the most specific passages available.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := retriever.NewRetriever(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create retriever: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	collection := &model.Collection{
		Name: "docs",
		Config: &model.RetrievalConfig{
			ChunkStrategy: model.ChunkStrategyParagraph,
			ChunkSize:     300,
		},
	}

	// Ingest a document
	fmt.Println("Ingesting document...")
	doc := model.NewDocument("hybrid_retrieval.txt", sampleContent)
	numPassages, err := r.IngestDocument(ctx, doc, collection)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Document %s ingested with %d passages\n", doc.RID, numPassages)

	// Ask a question against the collection
	question := "How does hybrid retrieval rank passages?"
	fmt.Printf("\nQuerying: %s\n", question)

	passages, citations, err := r.Retrieve(ctx, collection, question)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("\nFound %d passages:\n", len(passages))
	for i, citation := range citations {
		fmt.Printf("%d. [%.3f] %s: %s\n", i+1, citation.Score, citation.Source, citation.Text)
	}
}
