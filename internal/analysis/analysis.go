// Package analysis orchestrates one batch run of the engine: corpus
// statistics, vectorization, pair scoring, clustering, and trend
// aggregation, strictly in that order. All stages are pure data-in/data-out
// transforms over the immutable article batch; the run holds no state that
// survives it.
package analysis

import (
	"fmt"
	"time"

	"github.com/dgaraujo/newstrend/internal/cluster"
	"github.com/dgaraujo/newstrend/internal/config"
	"github.com/dgaraujo/newstrend/internal/corpus"
	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
	"github.com/dgaraujo/newstrend/internal/similarity"
	"github.com/dgaraujo/newstrend/internal/trend"
	"github.com/google/uuid"
)

// Result is the finished output of one run: the deduplicated event clusters
// and the decayed trend signal, plus the scored edge set for inspection.
type Result struct {
	RunID    string             `json:"run_id"`
	Asset    string             `json:"asset"`
	RanAt    time.Time          `json:"ran_at"`
	Articles int                `json:"articles"`
	Edges    []models.Edge      `json:"edges"`
	Clusters []models.Cluster   `json:"clusters"`
	Signal   models.TrendSignal `json:"signal"`
}

// Analyzer runs the clustering and trend pipeline with a fixed configuration.
type Analyzer struct {
	cfg *config.Config
}

// New creates an Analyzer. The configuration is validated here so a run can
// never start with thresholds outside their valid ranges.
func New(cfg *config.Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Run executes the full pipeline over one article batch. Articles are
// validated up front; an invalid article fails the run before any
// computation. An empty batch yields an empty result, and a single article
// yields one singleton cluster with no edges; neither is an error.
func (a *Analyzer) Run(articles []models.Article) (*Result, error) {
	for i := range articles {
		if err := articles[i].Validate(); err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
	}

	result := &Result{
		RunID:    uuid.New().String(),
		RanAt:    time.Now().UTC(),
		Articles: len(articles),
		Edges:    []models.Edge{},
		Clusters: []models.Cluster{},
		Signal:   models.TrendSignal{},
	}
	if len(articles) == 0 {
		return result, nil
	}
	result.Asset = articles[0].Asset

	// Corpus statistics over the batch
	tokenizer := corpus.NewTokenizer(a.cfg.Corpus.MinTokenLength, a.cfg.Corpus.StopWords)
	tokenized := make([][]string, len(articles))
	for i := range articles {
		tokenized[i] = tokenizer.TokenizeArticle(&articles[i])
	}
	table := corpus.BuildTable(tokenized)
	logger.Debug("analysis: corpus built, %d articles", table.NumDocs())

	// Vectorize and score pairs. A batch of one article has nothing to
	// compare; it still flows through clustering as a singleton.
	docs := make([]similarity.Document, len(articles))
	for i := range articles {
		docs[i] = similarity.Document{
			ID:          articles[i].ID,
			PublishedAt: articles[i].PublishedAt,
			Tokens:      tokenized[i],
			Vector:      similarity.Vectorize(tokenized[i], table, a.cfg.Corpus.LogDampenTF),
		}
	}

	if len(articles) > 1 {
		engine := similarity.NewEngine(
			a.cfg.Analysis.SemanticWeight,
			a.cfg.Analysis.SyntacticWeight,
			a.cfg.Analysis.MaxTimeGap,
			a.cfg.Analysis.MinEdgeScore,
			a.cfg.Analysis.Workers,
		)
		result.Edges = engine.Score(docs)
	}

	builder := cluster.NewBuilder(a.cfg.Analysis.ClusterThreshold)
	result.Clusters = builder.Build(articles, result.Edges)

	earliest, latest := timeBounds(articles)
	aggregator := trend.NewAggregator(a.cfg.Trend.BucketWidth, a.cfg.Trend.HalfLife, a.cfg.Trend.Epsilon)
	result.Signal = aggregator.Aggregate(result.Clusters, earliest, latest)

	logger.Info("analysis: run %s for %s: %d articles -> %d edges, %d clusters, %d trend windows",
		result.RunID, result.Asset, result.Articles, len(result.Edges), len(result.Clusters), len(result.Signal))
	return result, nil
}

// timeBounds returns the earliest and latest publication timestamps of the batch.
func timeBounds(articles []models.Article) (earliest, latest time.Time) {
	earliest = articles[0].PublishedAt
	latest = articles[0].PublishedAt
	for _, a := range articles[1:] {
		if a.PublishedAt.Before(earliest) {
			earliest = a.PublishedAt
		}
		if a.PublishedAt.After(latest) {
			latest = a.PublishedAt
		}
	}
	return earliest, latest
}
