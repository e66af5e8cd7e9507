package model

// Collection is an isolated namespace in the vector store, one per knowledge
// base. A collection has exactly one embedding model and therefore one vector
// dimensionality, enforced by resolving the embedding configuration at the
// collection level only.
type Collection struct {
	Name   string           `json:"name"`
	Config *RetrievalConfig `json:"config,omitempty"`
}

// ChatMessage is one turn of conversation history passed to Answer
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
