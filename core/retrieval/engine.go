// Package retrieval implements hybrid retrieval: a bounded keyword scan over
// the whole collection and a vector similarity search run concurrently, then
// merged under a single scoring and tie-break policy.
//
// The keyword branch guarantees recall for exact-term questions that a pure
// embedding model might under-rank; ranking by keyword match count first
// ensures a passage naming more of the asked-about entities always outranks
// a merely semantically similar one.
package retrieval

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sort"
	"sync"

	"github.com/siherrmann/retriever/core/embedding"
	"github.com/siherrmann/retriever/core/keywords"
	"github.com/siherrmann/retriever/model"
	"github.com/siherrmann/retriever/store"
)

const (
	// Cap for the keyword-only path; ranking still prefers more matches
	keywordTopKMax = 30
	// Minimum distinct question keywords a passage must contain to be retained
	minKeywordsRequired = 1
	// Page size for scrolling through the collection
	scrollPageSize = 100
	// Hard cap on examined passages to avoid slow full scans on huge collections
	maxScannedPassages = 2000
	// Bonus per matched question keyword when reranking vector results
	rerankKeywordBonus = 0.4
	// Fused score for keyword-sourced entries: base + weight * matchCount
	keywordBaseScore   = 0.5
	keywordMatchWeight = 0.2
	// Fused score bonus per matched keyword for vector-sourced entries
	vectorMatchWeight = 0.25
	// Ceiling on neighbors fetched for reranking
	vectorFetchMax = 150
)

// Engine runs hybrid retrieval against a vector store
type Engine struct {
	store    store.VectorStore
	registry *embedding.Registry
	log      *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(vectorStore store.VectorStore, registry *embedding.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    vectorStore,
		registry: registry,
		log:      logger,
	}
}

// keywordHit is a passage retained by the keyword scan with its match count
type keywordHit struct {
	matches int
	passage model.Passage
}

// Retrieve runs the keyword scan and the vector search concurrently, merges
// their results and returns the top-K passages with citations in rank order.
// Either branch may fail independently; the merge proceeds with whatever
// results are available. Both branches empty is a valid outcome, not an error.
func (e *Engine) Retrieve(ctx context.Context, collection string, question string, config model.RetrievalConfig) ([]string, []model.Citation, error) {
	topK := config.TopK
	if topK <= 0 {
		topK = model.DefaultTopK
	}
	if topK > model.MaxTopK {
		topK = model.MaxTopK
	}

	questionKeywords := keywords.QuestionKeywords(question)

	keywordTopK := keywordTopKMax
	if 2*topK < keywordTopK {
		keywordTopK = 2 * topK
	}
	fetch := 5 * topK
	if fetch > vectorFetchMax {
		fetch = vectorFetchMax
	}

	var (
		wg          sync.WaitGroup
		keywordHits []keywordHit
		keywordErr  error
		vectorHits  []model.SearchHit
		vectorErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = e.keywordScan(ctx, collection, questionKeywords, keywordTopK)
	}()
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = e.vectorSearch(ctx, collection, question, questionKeywords, config, topK, fetch)
	}()
	wg.Wait()

	// Merge proceeds with partial results, a failed branch contributes nothing
	if keywordErr != nil {
		e.log.Warn("keyword scan failed", slog.String("collection", collection), slog.String("error", keywordErr.Error()))
		keywordHits = nil
	}
	if vectorErr != nil {
		e.log.Warn("vector search failed", slog.String("collection", collection), slog.String("error", vectorErr.Error()))
		vectorHits = nil
	}

	contextPassages, citations := merge(keywordHits, vectorHits, questionKeywords, topK)
	return contextPassages, citations, nil
}

// keywordScan pages through the entire collection up to maxScannedPassages
// and retains passages containing at least minKeywordsRequired question
// keywords, ranked by match count descending and truncated to keywordTopK.
// A question with only stopwords yields no keyword results.
func (e *Engine) keywordScan(ctx context.Context, collection string, questionKeywords map[string]bool, keywordTopK int) ([]keywordHit, error) {
	if len(questionKeywords) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var hits []keywordHit
	offset := 0
	scanned := 0

	for scanned < maxScannedPassages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, next, err := e.store.Scroll(ctx, collection, offset, scrollPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for _, passage := range page {
			if passage.Text == "" || seen[passage.Text] {
				continue
			}
			if matches := keywords.CountKeywordMatches(passage.Text, questionKeywords); matches >= minKeywordsRequired {
				hits = append(hits, keywordHit{matches: matches, passage: passage})
				seen[passage.Text] = true
			}
		}

		scanned += len(page)
		if next == store.ScrollDone {
			break
		}
		offset = next
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].matches > hits[j].matches
	})
	if len(hits) > keywordTopK {
		hits = hits[:keywordTopK]
	}
	return hits, nil
}

// vectorSearch encodes the question with the collection's embedding model,
// fetches the nearest neighbors and reranks them by similarity plus a bonus
// per matched question keyword, truncating to topK. The returned hits keep
// their raw similarity scores; the boost only affects ordering.
func (e *Engine) vectorSearch(ctx context.Context, collection string, question string, questionKeywords map[string]bool, config model.RetrievalConfig, topK int, fetch int) ([]model.SearchHit, error) {
	vector, err := e.registry.EncodeQuery(question, config.EmbeddingModel, config.EmbeddingQueryPrefix)
	if err != nil {
		return nil, err
	}

	hits, err := e.store.Search(ctx, collection, vector, fetch)
	if err != nil {
		return nil, err
	}

	if len(questionKeywords) == 0 {
		if len(hits) > topK {
			hits = hits[:topK]
		}
		return hits, nil
	}

	type boostedHit struct {
		boosted float64
		hit     model.SearchHit
	}
	boosted := make([]boostedHit, len(hits))
	for i, hit := range hits {
		boost := rerankKeywordBonus * float64(keywords.CountKeywordMatches(hit.Passage.Text, questionKeywords))
		boosted[i] = boostedHit{boosted: hit.Score + boost, hit: hit}
	}
	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].boosted > boosted[j].boosted
	})

	if len(boosted) > topK {
		boosted = boosted[:topK]
	}
	reranked := make([]model.SearchHit, len(boosted))
	for i, b := range boosted {
		reranked[i] = b.hit
	}
	return reranked, nil
}

// mergedEntry is one deduplicated candidate with its fused score
type mergedEntry struct {
	passage model.Passage
	matches int
	score   float64
}

// merge deduplicates both branches by passage text (keyed by content hash),
// fuses scores and orders by match count descending, fused score descending.
// When the same text arrives from both branches, the entry with the higher
// match count wins, ties broken by higher fused score.
func merge(keywordHits []keywordHit, vectorHits []model.SearchHit, questionKeywords map[string]bool, topK int) ([]string, []model.Citation) {
	best := make(map[[sha256.Size]byte]*mergedEntry)
	var order []*mergedEntry

	upsert := func(passage model.Passage, matches int, score float64) {
		key := sha256.Sum256([]byte(passage.Text))
		prev, ok := best[key]
		if !ok {
			entry := &mergedEntry{passage: passage, matches: matches, score: score}
			best[key] = entry
			order = append(order, entry)
			return
		}
		if matches > prev.matches || (matches == prev.matches && score > prev.score) {
			prev.passage = passage
			prev.matches = matches
			prev.score = score
		}
	}

	for _, hit := range keywordHits {
		if hit.passage.Text == "" {
			continue
		}
		upsert(hit.passage, hit.matches, keywordBaseScore+keywordMatchWeight*float64(hit.matches))
	}
	for _, hit := range vectorHits {
		if hit.Passage.Text == "" {
			continue
		}
		matches := keywords.CountKeywordMatches(hit.Passage.Text, questionKeywords)
		upsert(hit.Passage, matches, hit.Score+vectorMatchWeight*float64(matches))
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].matches != order[j].matches {
			return order[i].matches > order[j].matches
		}
		return order[i].score > order[j].score
	})
	if len(order) > topK {
		order = order[:topK]
	}

	contextPassages := make([]string, len(order))
	citations := make([]model.Citation, len(order))
	for i, entry := range order {
		contextPassages[i] = entry.passage.Text
		citations[i] = model.Citation{
			Text:   entry.passage.Text,
			Source: entry.passage.Source,
			Score:  entry.score,
		}
	}
	return contextPassages, citations
}
