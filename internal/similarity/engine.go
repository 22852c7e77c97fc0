// Package similarity converts tokenized articles into TF-IDF vectors and
// scores article pairs with a combined semantic/syntactic similarity.
//
// Each unordered pair of distinct, non-zero-vector articles is scored as
//
//	score = (wSem·cosine + wSyn·sequenceRatio) / (wSem + wSyn)
//
// clipped to [0,1]. A publication-time pre-filter skips pairs further apart
// than the maximum gap, and pairs scoring below the emit threshold are
// discarded to bound the edge count. Scoring is independent per pair, so it
// parallelizes across workers over disjoint pair ranges with no shared
// mutation; the merged edge set is sorted canonically, so the result does
// not depend on the worker count.
package similarity

import (
	"sort"
	"sync"
	"time"

	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
)

// Document is one article prepared for pair scoring: its normalized token
// sequence and unit TF-IDF vector. Both are read-only during scoring.
type Document struct {
	ID          string
	PublishedAt time.Time
	Tokens      []string
	Vector      Vector
}

// Engine scores article pairs into similarity edges.
type Engine struct {
	semanticWeight  float64
	syntacticWeight float64
	maxTimeGap      time.Duration
	minEdgeScore    float64
	workers         int
}

// NewEngine creates a pair-scoring engine. Weights must not both be zero and
// workers must be at least 1; config validation enforces both before a run.
func NewEngine(semanticWeight, syntacticWeight float64, maxTimeGap time.Duration, minEdgeScore float64, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		semanticWeight:  semanticWeight,
		syntacticWeight: syntacticWeight,
		maxTimeGap:      maxTimeGap,
		minEdgeScore:    minEdgeScore,
		workers:         workers,
	}
}

// pair holds indices into the document slice, i < j.
type pair struct {
	i, j int
}

// Score computes similarity edges for every qualifying unordered pair.
// Zero-vector documents never pair; pairs published further apart than the
// maximum time gap are assumed unrelated and skipped before any scoring.
// The returned edges are sorted by (ArticleA, ArticleB) and each edge
// satisfies ArticleA < ArticleB, so the set is symmetric by construction.
func (e *Engine) Score(docs []Document) []models.Edge {
	pairs := e.candidatePairs(docs)
	if len(pairs) == 0 {
		return []models.Edge{}
	}

	workers := e.workers
	if workers > len(pairs) {
		workers = len(pairs)
	}

	results := make([][]models.Edge, workers)
	chunk := (len(pairs) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(pairs) {
			hi = len(pairs)
		}

		wg.Add(1)
		go func(w int, own []pair) {
			defer wg.Done()
			var edges []models.Edge
			for _, p := range own {
				if edge, ok := e.scorePair(&docs[p.i], &docs[p.j]); ok {
					edges = append(edges, edge)
				}
			}
			results[w] = edges
		}(w, pairs[lo:hi])
	}
	wg.Wait()

	var edges []models.Edge
	for _, part := range results {
		edges = append(edges, part...)
	}
	if edges == nil {
		edges = []models.Edge{}
	}

	// Canonical order: edge discovery must not depend on worker scheduling
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].ArticleA != edges[j].ArticleA {
			return edges[i].ArticleA < edges[j].ArticleA
		}
		return edges[i].ArticleB < edges[j].ArticleB
	})

	logger.Debug("similarity: %d documents, %d candidate pairs, %d edges emitted",
		len(docs), len(pairs), len(edges))
	return edges
}

// candidatePairs applies the zero-vector and time-gap pre-filters.
func (e *Engine) candidatePairs(docs []Document) []pair {
	var pairs []pair
	for i := 0; i < len(docs); i++ {
		if docs[i].Vector.IsZero() {
			continue
		}
		for j := i + 1; j < len(docs); j++ {
			if docs[j].Vector.IsZero() {
				continue
			}
			gap := docs[i].PublishedAt.Sub(docs[j].PublishedAt)
			if gap < 0 {
				gap = -gap
			}
			if gap > e.maxTimeGap {
				continue
			}
			pairs = append(pairs, pair{i, j})
		}
	}
	return pairs
}

// scorePair computes the combined score for one pair and reports whether it
// clears the emit threshold.
func (e *Engine) scorePair(a, b *Document) (models.Edge, bool) {
	semantic := Cosine(a.Vector, b.Vector)
	syntactic := SequenceRatio(a.Tokens, b.Tokens)

	combined := (e.semanticWeight*semantic + e.syntacticWeight*syntactic) /
		(e.semanticWeight + e.syntacticWeight)
	if combined < 0 {
		combined = 0
	}
	if combined > 1 {
		combined = 1
	}

	if combined < e.minEdgeScore {
		return models.Edge{}, false
	}

	idA, idB := a.ID, b.ID
	if idA > idB {
		idA, idB = idB, idA
	}
	return models.Edge{
		ArticleA:  idA,
		ArticleB:  idB,
		Semantic:  semantic,
		Syntactic: syntactic,
		Score:     combined,
	}, true
}
