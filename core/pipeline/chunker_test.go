package pipeline

import (
	"strings"
	"testing"

	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	t.Run("Empty text yields no chunks", func(t *testing.T) {
		chunks := ChunkText("", model.ChunkStrategyFixed, 100, 10)
		assert.Empty(t, chunks)
	})

	t.Run("Whitespace only text yields no chunks", func(t *testing.T) {
		chunks := ChunkText("   \n\t  ", model.ChunkStrategyFixed, 100, 10)
		assert.Empty(t, chunks)
	})

	t.Run("Unknown strategy falls back to fixed", func(t *testing.T) {
		chunks := ChunkText("Short text.", "semantic", 100, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Short text.", chunks[0])
	})

	t.Run("Non-positive size uses the default", func(t *testing.T) {
		chunks := ChunkText("Short text.", model.ChunkStrategyFixed, 0, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "Short text.", chunks[0])
	})
}

func TestChunkFixed(t *testing.T) {
	t.Run("Text shorter than size gives a single chunk", func(t *testing.T) {
		chunks := chunkFixed("A short document.", 100, 10)
		require.Len(t, chunks, 1)
		assert.Equal(t, "A short document.", chunks[0])
	})

	t.Run("Cut point snaps back to a sentence boundary", func(t *testing.T) {
		text := "First sentence. Second sentence follows here."
		chunks := chunkFixed(text, 20, 0)
		require.Greater(t, len(chunks), 1)
		assert.Equal(t, "First sentence.", chunks[0])
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 20)
		}
	})

	t.Run("Consecutive chunks share the overlap region", func(t *testing.T) {
		// No spaces or sentence ends, so windows never snap back and each
		// chunk starts exactly overlap characters before the previous end
		text := strings.Repeat("abcdefghij", 10)
		chunks := chunkFixed(text, 50, 10)

		require.Greater(t, len(chunks), 1)
		for i := 0; i < len(chunks)-1; i++ {
			assert.LessOrEqual(t, len(chunks[i]), 50)
			suffix := chunks[i][len(chunks[i])-10:]
			assert.True(t, strings.HasPrefix(chunks[i+1], suffix),
				"Expected chunk %d to start with the last 10 characters of chunk %d", i+1, i)
		}
	})

	t.Run("Overlapping windows stay within the size limit", func(t *testing.T) {
		text := strings.Repeat("alpha beta gamma delta epsilon ", 10)
		chunks := chunkFixed(text, 50, 10)
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.NotEmpty(t, chunk)
			assert.LessOrEqual(t, len(chunk), 50)
		}
	})

	t.Run("Overlap equal to size still terminates and covers the text", func(t *testing.T) {
		text := strings.Repeat("a", 30)
		chunks := chunkFixed(text, 10, 10)
		assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), strings.Repeat("a", 10)}, chunks)
	})

	t.Run("Overlap close to size advances by small steps", func(t *testing.T) {
		text := strings.Repeat("b", 30)
		chunks := chunkFixed(text, 10, 9)
		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 10)
		}
	})
}

func TestChunkParagraph(t *testing.T) {
	t.Run("Packs paragraphs up to the size limit", func(t *testing.T) {
		text := "Para one.\n\nPara two.\n\nPara three."
		chunks := chunkParagraph(text, 25, 0)
		assert.Equal(t, []string{"Para one.\n\nPara two.", "Para three."}, chunks)
	})

	t.Run("Overlap carries trailing paragraphs into the next chunk", func(t *testing.T) {
		text := "aaaaaaaaaa\n\nbbbbbbbbbb\n\ncccccccccc"
		chunks := chunkParagraph(text, 25, 10)
		assert.Equal(t, []string{"aaaaaaaaaa\n\nbbbbbbbbbb", "bbbbbbbbbb\n\ncccccccccc"}, chunks)
	})

	t.Run("Text without blank lines falls back to fixed chunking", func(t *testing.T) {
		text := "A single paragraph without any blank lines in it."
		chunks := chunkParagraph(text, 100, 0)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})
}

func TestChunkSentence(t *testing.T) {
	t.Run("Packs sentences up to the size limit", func(t *testing.T) {
		text := "One fish. Two fish. Red fish. Blue fish."
		chunks := chunkSentence(text, 20, 0)
		assert.Equal(t, []string{"One fish. Two fish.", "Red fish. Blue fish."}, chunks)
	})

	t.Run("Keeps sentence ending punctuation", func(t *testing.T) {
		text := "Is this a question? It is! And a statement."
		chunks := chunkSentence(text, 25, 0)
		require.NotEmpty(t, chunks)
		assert.Contains(t, chunks[0], "question?")
	})

	t.Run("Text without sentence breaks falls back to fixed chunking", func(t *testing.T) {
		text := "no sentence ending punctuation here"
		chunks := chunkSentence(text, 100, 0)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})
}

func TestChunkRecursive(t *testing.T) {
	t.Run("Keeps paragraphs together when they fit", func(t *testing.T) {
		para1 := strings.Repeat("a", 30)
		para2 := strings.Repeat("b", 30)
		chunks := chunkRecursive(para1+"\n\n"+para2, 40, 0)
		assert.Equal(t, []string{para1, para2}, chunks)
	})

	t.Run("No chunk ever exceeds the size limit", func(t *testing.T) {
		text := strings.Repeat("Sentence one here. Sentence two here.\n", 20) +
			"\n" + strings.Repeat("word ", 100)
		chunks := chunkRecursive(text, 60, 10)
		require.NotEmpty(t, chunks)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 60)
		}
	})

	t.Run("Unsplittable text is hard sliced with overlap", func(t *testing.T) {
		text := strings.Repeat("x", 100)
		chunks := chunkRecursive(text, 30, 10)
		assert.Len(t, chunks, 5)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), 30)
		}
	})

	t.Run("Hard slice terminates when overlap equals size", func(t *testing.T) {
		text := strings.Repeat("y", 100)
		chunks := chunkRecursive(text, 10, 10)
		assert.Len(t, chunks, 10)
	})
}
