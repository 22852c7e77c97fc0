// Package ingest is the hand-off boundary from the ingestion collaborator.
// The engine never fetches or parses web content; collectors deliver
// already-normalized article records as a JSON batch, and this package
// decodes and validates them before they may enter a run.
//
// Validation fails fast: a record with a malformed or missing timestamp is
// rejected with models.ErrInvalidArticle rather than silently defaulted,
// since time ordering drives pair pre-filtering and trend bucketing.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
)

// Batch is the wire format collectors write: the asset the articles were
// gathered for and the article records themselves.
type Batch struct {
	Asset    string           `json:"asset"`
	Articles []models.Article `json:"articles"`
}

// LoadFile reads and validates an article batch from a JSON file.
func LoadFile(path string) ([]models.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open article batch: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads and validates an article batch from r. Every article must pass
// validation, carry the batch's asset identifier, and have a unique ID.
// The returned slice is sorted by publication time, ID as tiebreak, so
// downstream stages see a deterministic order.
func Load(r io.Reader) ([]models.Article, error) {
	var batch Batch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&batch); err != nil {
		// An unparsable published_at surfaces from the decoder as a
		// time.ParseError; it must carry the same sentinel as a missing one.
		var parseErr *time.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: malformed published timestamp %q", models.ErrInvalidArticle, parseErr.Value)
		}
		return nil, fmt.Errorf("failed to decode article batch: %w", err)
	}

	seen := make(map[string]struct{}, len(batch.Articles))
	for i := range batch.Articles {
		a := &batch.Articles[i]
		if a.Asset == "" {
			a.Asset = batch.Asset
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if batch.Asset != "" && a.Asset != batch.Asset {
			return nil, fmt.Errorf("record %d: %w: asset %q does not match batch asset %q",
				i, models.ErrInvalidArticle, a.Asset, batch.Asset)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("record %d: %w: duplicate article ID %s", i, models.ErrInvalidArticle, a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.IsEmpty() {
			logger.Warn("ingest: article %s carries no text, it will cluster alone", a.ID)
		}
	}

	articles := batch.Articles
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.Before(articles[j].PublishedAt)
		}
		return articles[i].ID < articles[j].ID
	})

	logger.Debug("ingest: loaded %d articles for asset %s", len(articles), batch.Asset)
	return articles, nil
}
