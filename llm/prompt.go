package llm

import (
	"fmt"
	"strings"

	"github.com/siherrmann/retriever/model"
)

// NoContextFound is the context placeholder when retrieval returned nothing
const NoContextFound = "No relevant context found."

// maxHistoryMessages bounds the chat history carried into the memory block
const maxHistoryMessages = 20

// DefaultPrompt is the grounding prompt used when no custom template is set.
// {context} and {question} are substituted, the memory block is prepended.
const DefaultPrompt = "Answer the question using only the context below. " +
	"Do not use external knowledge. Use information, numbers, and names exactly as they appear in the context. " +
	"Do not invent or assume meanings for abbreviations or acronyms; use only what the context states. " +
	"If the context contains a section that directly defines or lists what is asked, base your answer on that section. " +
	"If the answer is not in the context, say so briefly.\n\n" +
	"Context:\n{context}\n\n" +
	"Question: {question}\n\n" +
	"Answer:"

// MemoryBlock renders the last turns of conversation history as a prompt
// prefix. Empty history yields an empty string.
func MemoryBlock(history []model.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	var lines []string
	for _, message := range history {
		role := message.Role
		if role == "" {
			role = "user"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, message.Content))
	}
	return "Previous conversation:\n" + strings.Join(lines, "\n") + "\n\n"
}

// BuildPrompt assembles the final prompt from a template, retrieved context,
// the question and the memory block. An empty template uses DefaultPrompt.
// Templates with a {memory} placeholder get the memory block substituted in
// place, otherwise it is prepended.
func BuildPrompt(template string, contextText string, question string, memoryBlock string) string {
	if template == "" {
		template = DefaultPrompt
	}

	prompt := strings.ReplaceAll(template, "{context}", contextText)
	prompt = strings.ReplaceAll(prompt, "{question}", question)

	if strings.Contains(template, "{memory}") {
		return strings.ReplaceAll(prompt, "{memory}", memoryBlock)
	}
	return memoryBlock + prompt
}
