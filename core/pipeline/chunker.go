package pipeline

import (
	"regexp"
	"strings"

	"github.com/siherrmann/retriever/model"
)

var (
	blankLinePattern   = regexp.MustCompile(`\n\s*\n`)
	sentenceEndPattern = regexp.MustCompile(`[.!?]\s+`)
)

// recursiveSeparators are tried in priority order by the recursive strategy
var recursiveSeparators = []string{"\n\n", "\n", ". ", " "}

// ChunkText splits text into chunks using the given strategy.
// Unknown strategy names fall back to the fixed strategy, empty or
// whitespace-only text yields no chunks. Size and overlap are in characters
// for all strategies.
func ChunkText(text string, strategy string, size int, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = model.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = model.DefaultChunkOverlap
	}

	switch strings.ToLower(strategy) {
	case model.ChunkStrategyParagraph:
		return chunkParagraph(text, size, overlap)
	case model.ChunkStrategySentence:
		return chunkSentence(text, size, overlap)
	case model.ChunkStrategyRecursive:
		return chunkRecursive(text, size, overlap)
	default:
		return chunkFixed(text, size, overlap)
	}
}

// chunkFixed slides a window of size characters over the text. When the
// window's right edge falls before the end of the text, the cut point snaps
// back to the nearest sentence end, newline or space past size/2 to avoid
// splitting mid-word. The next window starts at end-overlap; if that would
// not advance (overlap >= size or an early snap), it starts at end instead.
func chunkFixed(text string, size int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunk := text[start:end]

		if end < len(text) {
			lastPeriod := strings.LastIndex(chunk, ". ")
			lastNewline := strings.LastIndex(chunk, "\n")
			lastSpace := strings.LastIndex(chunk, " ")
			breakAt := lastPeriod
			if lastNewline > breakAt {
				breakAt = lastNewline
			}
			if lastSpace > breakAt {
				breakAt = lastSpace
			}
			if breakAt > size/2 {
				chunk = chunk[:breakAt+1]
				end = start + breakAt + 1
			}
		}

		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - overlap
		if overlap >= size || next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// chunkParagraph splits on blank lines and greedily packs paragraphs into
// chunks of up to size characters. On overflow it starts a new chunk seeded
// with trailing paragraphs of the full chunk, accumulating backward until at
// least overlap characters are retained, preserving paragraph order.
func chunkParagraph(text string, size int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var paragraphs []string
	for _, part := range blankLinePattern.Split(text, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	if len(paragraphs) == 0 {
		return chunkFixed(text, size, overlap)
	}

	return packParts(paragraphs, "\n\n", size, overlap)
}

// chunkSentence splits on sentence-ending punctuation followed by whitespace
// and packs sentences into chunks the same way chunkParagraph packs paragraphs.
func chunkSentence(text string, size int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	last := 0
	for _, loc := range sentenceEndPattern.FindAllStringIndex(text, -1) {
		// Keep the punctuation character, drop the trailing whitespace
		if trimmed := strings.TrimSpace(text[last : loc[0]+1]); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
		last = loc[1]
	}
	if trimmed := strings.TrimSpace(text[last:]); trimmed != "" {
		sentences = append(sentences, trimmed)
	}
	if len(sentences) == 0 {
		return chunkFixed(text, size, overlap)
	}

	return packParts(sentences, " ", size, overlap)
}

// packParts greedily joins parts with joiner up to size characters per chunk.
// When a chunk overflows, trailing parts are carried into the next chunk
// until at least overlap characters are retained.
func packParts(parts []string, joiner string, size int, overlap int) []string {
	joinerLen := len(joiner)

	var chunks []string
	var current []string
	currentLen := 0

	for _, part := range parts {
		addLen := len(part) + joinerLen
		if currentLen+addLen > size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, joiner))

			if overlap > 0 {
				overlapLen := 0
				var keep []string
				for j := len(current) - 1; j >= 0; j-- {
					overlapLen += len(current[j]) + joinerLen
					keep = append([]string{current[j]}, keep...)
					if overlapLen >= overlap {
						break
					}
				}
				current = keep
				currentLen = 0
				for _, kept := range current {
					currentLen += len(kept)
				}
				currentLen += joinerLen * (len(current) - 1)
			} else {
				current = nil
				currentLen = 0
			}
		}

		current = append(current, part)
		if currentLen == 0 {
			currentLen = len(part)
		} else {
			currentLen += addLen
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, joiner))
	}

	var result []string
	for _, chunk := range chunks {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// chunkRecursive tries separators in priority order, splits on the first one
// that yields more than one part and reassembles parts greedily up to size,
// recursing into the remaining separators for oversized segments. When no
// separator applies and a segment still exceeds size, it is hard-sliced
// every size-overlap characters.
func chunkRecursive(text string, size int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var result []string
	for _, chunk := range splitRecursive(text, recursiveSeparators, size, overlap) {
		if chunk != "" {
			result = append(result, chunk)
		}
	}
	return result
}

func splitRecursive(s string, separators []string, size int, overlap int) []string {
	if len(s) <= size {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	if len(separators) == 0 {
		// Hard-slice fallback, guarding against a non-positive step
		step := size - overlap
		if step <= 0 {
			step = size
		}
		var out []string
		for i := 0; i < len(s); i += step {
			end := i + size
			if end > len(s) {
				end = len(s)
			}
			if trimmed := strings.TrimSpace(s[i:end]); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}

	sep := separators[0]
	parts := strings.Split(s, sep)
	if len(parts) == 1 {
		return splitRecursive(s, separators[1:], size, overlap)
	}

	var out []string
	current := ""
	for i, part := range parts {
		add := part
		if i < len(parts)-1 {
			add += sep
		}
		if len(current)+len(add) <= size {
			current += add
			continue
		}
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			out = append(out, trimmed)
		}
		if len(add) > size {
			out = append(out, splitRecursive(add, separators[1:], size, overlap)...)
			current = ""
		} else {
			current = add
		}
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		out = append(out, trimmed)
	}

	return out
}
