// Package storage persists finished runs (clusters, members, and trend
// points) to SQLite so downstream reporting can read past runs without
// re-analyzing. The engine itself never reads this data back into a run;
// persistence is strictly write-after-analysis.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dgaraujo/newstrend/internal/models"
	_ "modernc.org/sqlite"
)

// Store persists analysis runs to a SQLite database.
type Store struct {
	db *sql.DB
}

// Run is the stored header of one analysis run.
type Run struct {
	ID       string    `json:"id"`
	Asset    string    `json:"asset"`
	RanAt    time.Time `json:"ran_at"`
	Articles int       `json:"articles"`
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	asset         TEXT NOT NULL,
	ran_at        INTEGER NOT NULL,
	article_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS clusters (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL REFERENCES runs(id),
	asset         TEXT NOT NULL,
	first_report  INTEGER NOT NULL,
	combined_text TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cluster_members (
	cluster_id TEXT NOT NULL REFERENCES clusters(id),
	article_id TEXT NOT NULL,
	PRIMARY KEY (cluster_id, article_id)
);
CREATE TABLE IF NOT EXISTS cluster_sources (
	cluster_id TEXT NOT NULL REFERENCES clusters(id),
	source     TEXT NOT NULL,
	PRIMARY KEY (cluster_id, source)
);
CREATE TABLE IF NOT EXISTS trend_points (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	window    INTEGER NOT NULL,
	score     REAL NOT NULL,
	direction TEXT NOT NULL,
	PRIMARY KEY (run_id, window)
);
CREATE INDEX IF NOT EXISTS idx_clusters_run ON clusters(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_asset ON runs(asset, ran_at);
`

// New opens (or creates) the database at path and ensures the schema exists.
// Pass ":memory:" for an ephemeral store in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun writes one finished run atomically: header, clusters, members,
// and trend points all land or none do.
func (s *Store) SaveRun(run Run, clusters []models.Cluster, signal models.TrendSignal) error {
	if run.ID == "" {
		return fmt.Errorf("run ID must not be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, asset, ran_at, article_count) VALUES (?, ?, ?, ?)`,
		run.ID, run.Asset, run.RanAt.Unix(), run.Articles,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i := range clusters {
		c := &clusters[i]
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid cluster: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO clusters (id, run_id, asset, first_report, combined_text) VALUES (?, ?, ?, ?, ?)`,
			c.ID, run.ID, c.Asset, c.FirstReport.Unix(), c.CombinedText,
		); err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", c.ID, err)
		}
		for _, articleID := range c.ArticleIDs {
			if _, err := tx.Exec(
				`INSERT INTO cluster_members (cluster_id, article_id) VALUES (?, ?)`,
				c.ID, articleID,
			); err != nil {
				return fmt.Errorf("failed to insert member %s: %w", articleID, err)
			}
		}
		for _, source := range c.Sources {
			if _, err := tx.Exec(
				`INSERT INTO cluster_sources (cluster_id, source) VALUES (?, ?)`,
				c.ID, source,
			); err != nil {
				return fmt.Errorf("failed to insert source %s: %w", source, err)
			}
		}
	}

	for _, p := range signal {
		if _, err := tx.Exec(
			`INSERT INTO trend_points (run_id, window, score, direction) VALUES (?, ?, ?, ?)`,
			run.ID, p.Window.Unix(), p.Score, string(p.Direction),
		); err != nil {
			return fmt.Errorf("failed to insert trend point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit run headers for an asset, newest first.
func (s *Store) ListRuns(asset string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, asset, ran_at, article_count FROM runs WHERE asset = ? ORDER BY ran_at DESC LIMIT ?`,
		asset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ranAt int64
		if err := rows.Scan(&r.ID, &r.Asset, &ranAt, &r.Articles); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.RanAt = time.Unix(ranAt, 0).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetClusters returns the clusters of a run ordered by first report time.
func (s *Store) GetClusters(runID string) ([]models.Cluster, error) {
	rows, err := s.db.Query(
		`SELECT id, asset, first_report, combined_text FROM clusters WHERE run_id = ? ORDER BY first_report, id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	var clusters []models.Cluster
	for rows.Next() {
		var c models.Cluster
		var firstReport int64
		if err := rows.Scan(&c.ID, &c.Asset, &firstReport, &c.CombinedText); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		c.FirstReport = time.Unix(firstReport, 0).UTC()
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clusters: %w", err)
	}

	for i := range clusters {
		if err := s.loadMembers(&clusters[i]); err != nil {
			return nil, err
		}
	}
	return clusters, nil
}

// loadMembers fills ArticleIDs and the distinct source set of a cluster.
func (s *Store) loadMembers(c *models.Cluster) error {
	rows, err := s.db.Query(
		`SELECT article_id FROM cluster_members WHERE cluster_id = ? ORDER BY article_id`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID string
		if err := rows.Scan(&articleID); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		c.ArticleIDs = append(c.ArticleIDs, articleID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	srcRows, err := s.db.Query(
		`SELECT source FROM cluster_sources WHERE cluster_id = ? ORDER BY source`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query sources: %w", err)
	}
	defer srcRows.Close()

	for srcRows.Next() {
		var source string
		if err := srcRows.Scan(&source); err != nil {
			return fmt.Errorf("failed to scan source: %w", err)
		}
		c.Sources = append(c.Sources, source)
	}
	return srcRows.Err()
}

// GetTrend returns the trend signal of a run in window order.
func (s *Store) GetTrend(runID string) (models.TrendSignal, error) {
	rows, err := s.db.Query(
		`SELECT window, score, direction FROM trend_points WHERE run_id = ? ORDER BY window`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend points: %w", err)
	}
	defer rows.Close()

	signal := models.TrendSignal{}
	for rows.Next() {
		var p models.TrendPoint
		var window int64
		var direction string
		if err := rows.Scan(&window, &p.Score, &direction); err != nil {
			return nil, fmt.Errorf("failed to scan trend point: %w", err)
		}
		p.Window = time.Unix(window, 0).UTC()
		p.Direction = models.Direction(direction)
		signal = append(signal, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trend points: %w", err)
	}
	return signal, nil
}
