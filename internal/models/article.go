// Package models defines the core domain entities for the newstrend engine.
// These models represent ingested news articles, similarity edges, event
// clusters, and trend signal points. All models include built-in validation
// to ensure data integrity at the ingestion and analysis boundaries.
//
// Terminology:
//   - Article: one normalized news record delivered by the ingestion
//     collaborator (no fetching or HTML handling happens in this module).
//   - Cluster: a group of articles judged to report the same occurrence.
//   - TrendPoint: one time bucket of the decayed activity signal.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidArticle is wrapped by every article validation failure.
// The engine refuses to silently default article fields, in particular
// timestamps, since time ordering drives pair pre-filtering and bucketing.
var ErrInvalidArticle = errors.New("invalid article")

// Article is one normalized news record for a single asset.
// Articles are immutable for the lifetime of an analysis run: the engine
// reads them but never mutates them.
type Article struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`       // outlet identifier, e.g. "exame"
	Asset       string    `json:"asset"`        // ticker symbol, e.g. "PETR4"
	PublishedAt time.Time `json:"published_at"` // publication time, required
	Title       string    `json:"title"`
	Text        string    `json:"text"` // extracted body text, may be empty
}

// Validate checks that the article can enter an analysis run.
// An empty or whitespace-only body is allowed (the article becomes a
// singleton cluster); a missing ID, source, asset, or timestamp is not.
func (a *Article) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: article ID must not be empty", ErrInvalidArticle)
	}
	if a.Source == "" {
		return fmt.Errorf("%w: article %s has no source identifier", ErrInvalidArticle, a.ID)
	}
	if a.Asset == "" {
		return fmt.Errorf("%w: article %s has no asset identifier", ErrInvalidArticle, a.ID)
	}
	if a.PublishedAt.IsZero() {
		return fmt.Errorf("%w: article %s has no published timestamp", ErrInvalidArticle, a.ID)
	}
	if a.PublishedAt.After(time.Now().Add(24 * time.Hour)) {
		return fmt.Errorf("%w: article %s published timestamp is in the future", ErrInvalidArticle, a.ID)
	}
	return nil
}

// IsEmpty reports whether the article body carries no analyzable text.
func (a *Article) IsEmpty() bool {
	return strings.TrimSpace(a.Text) == "" && strings.TrimSpace(a.Title) == ""
}
