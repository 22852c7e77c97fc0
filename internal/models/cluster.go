package models

import (
	"errors"
	"time"
)

// Edge is an undirected similarity link between two articles.
// Edges are emitted once per unordered pair with ArticleA < ArticleB
// so that (A,B) and (B,A) can never both appear.
type Edge struct {
	ArticleA  string  `json:"article_a"`
	ArticleB  string  `json:"article_b"`
	Semantic  float64 `json:"semantic"`  // cosine similarity of TF-IDF vectors
	Syntactic float64 `json:"syntactic"` // matching-blocks sequence ratio
	Score     float64 `json:"score"`     // combined weighted score in [0,1]
}

// Validate checks edge field invariants.
func (e *Edge) Validate() error {
	if e.ArticleA == "" || e.ArticleB == "" {
		return errors.New("edge endpoints must not be empty")
	}
	if e.ArticleA >= e.ArticleB {
		return errors.New("edge endpoints must satisfy ArticleA < ArticleB")
	}
	if e.Score < 0.0 || e.Score > 1.0 {
		return errors.New("edge score must be between 0.0 and 1.0")
	}
	return nil
}

// Cluster is one detected event: the set of articles judged to report the
// same underlying occurrence. Clusters partition the input article set of a
// run; a cluster of size one is an article nothing else matched.
type Cluster struct {
	ID           string    `json:"id"`
	Asset        string    `json:"asset"`
	ArticleIDs   []string  `json:"article_ids"`   // sorted ascending
	Sources      []string  `json:"sources"`       // distinct, sorted ascending
	FirstReport  time.Time `json:"first_report"`  // earliest member timestamp
	CombinedText string    `json:"combined_text"` // member texts joined for downstream summarization
}

// Size returns the number of member articles.
func (c *Cluster) Size() int {
	return len(c.ArticleIDs)
}

// SourceCount returns the number of distinct outlets corroborating the event.
func (c *Cluster) SourceCount() int {
	return len(c.Sources)
}

// Validate checks cluster field invariants.
func (c *Cluster) Validate() error {
	if c.ID == "" {
		return errors.New("cluster ID must not be empty")
	}
	if len(c.ArticleIDs) == 0 {
		return errors.New("cluster must contain at least one article")
	}
	if len(c.Sources) == 0 {
		return errors.New("cluster must name at least one source")
	}
	if len(c.Sources) > len(c.ArticleIDs) {
		return errors.New("cluster cannot have more sources than articles")
	}
	if c.FirstReport.IsZero() {
		return errors.New("cluster first report timestamp must be set")
	}
	return nil
}
