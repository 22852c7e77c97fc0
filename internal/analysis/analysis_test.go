package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dgaraujo/newstrend/internal/config"
	"github.com/dgaraujo/newstrend/internal/models"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func mustAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New(config.Default())
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	return a
}

// ceoChangeBatch is the canonical scenario: three outlets report the same
// CEO change within two hours, a fourth unrelated article lands the same day.
func ceoChangeBatch() []models.Article {
	return []models.Article{
		{
			ID: "exame-1", Source: "exame", Asset: "BANX3", PublishedAt: base,
			Title: "Bank X announces CEO change",
			Text:  "Bank X announced today that its chief executive officer will step down, naming longtime finance director Maria Silva as the new CEO effective immediately.",
		},
		{
			ID: "infomoney-1", Source: "infomoney", Asset: "BANX3", PublishedAt: base.Add(45 * time.Minute),
			Title: "Bank X names new CEO in surprise change",
			Text:  "Bank X announced today that its chief executive officer will step down, naming finance director Maria Silva as the new CEO effective immediately, the company said.",
		},
		{
			ID: "valor-1", Source: "valor", Asset: "BANX3", PublishedAt: base.Add(2 * time.Hour),
			Title: "CEO change at Bank X",
			Text:  "Bank X said its chief executive officer will step down and named finance director Maria Silva as new CEO effective immediately after the board meeting.",
		},
		{
			ID: "exame-2", Source: "exame", Asset: "BANX3", PublishedAt: base.Add(5 * time.Hour),
			Title: "Bank X quarterly earnings",
			Text:  "Quarterly revenue rose four percent on stronger retail lending while trading income declined, missing analyst consensus estimates for the period.",
		},
	}
}

func TestRunScenarioClustersAndSignal(t *testing.T) {
	result, err := mustAnalyzer(t).Run(ceoChangeBatch())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Clusters) != 2 {
		t.Fatalf("expected 2 clusters (CEO event + earnings), got %d", len(result.Clusters))
	}

	event := result.Clusters[0]
	if event.Size() != 3 {
		t.Errorf("CEO event cluster size = %d, want 3", event.Size())
	}
	if event.SourceCount() != 3 {
		t.Errorf("CEO event source count = %d, want 3", event.SourceCount())
	}
	if !event.FirstReport.Equal(base) {
		t.Errorf("CEO event first report = %v, want %v", event.FirstReport, base)
	}

	earnings := result.Clusters[1]
	if earnings.Size() != 1 || earnings.ArticleIDs[0] != "exame-2" {
		t.Errorf("expected earnings singleton, got %+v", earnings)
	}

	// Both clusters share one daily window: decayed score 3 + 1 = 4, up.
	if len(result.Signal) != 1 {
		t.Fatalf("expected 1 trend window, got %d", len(result.Signal))
	}
	if math.Abs(result.Signal[0].Score-4.0) > 1e-9 {
		t.Errorf("window score = %f, want 4.0", result.Signal[0].Score)
	}
	if result.Signal[0].Direction != models.DirectionUp {
		t.Errorf("window direction = %s, want up", result.Signal[0].Direction)
	}
}

func TestRunPartitionInvariant(t *testing.T) {
	batch := ceoChangeBatch()
	result, err := mustAnalyzer(t).Run(batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	seen := make(map[string]int)
	for _, c := range result.Clusters {
		for _, id := range c.ArticleIDs {
			seen[id]++
		}
	}
	for _, a := range batch {
		if seen[a.ID] != 1 {
			t.Errorf("article %s in %d clusters, want exactly 1", a.ID, seen[a.ID])
		}
	}
}

func TestRunEmptyBatch(t *testing.T) {
	result, err := mustAnalyzer(t).Run(nil)
	if err != nil {
		t.Fatalf("Run failed on empty batch: %v", err)
	}
	if len(result.Clusters) != 0 || len(result.Edges) != 0 || len(result.Signal) != 0 {
		t.Errorf("empty batch must produce empty outputs, got %+v", result)
	}
}

func TestRunSingleArticle(t *testing.T) {
	batch := ceoChangeBatch()[:1]
	result, err := mustAnalyzer(t).Run(batch)
	if err != nil {
		t.Fatalf("Run failed on single article: %v", err)
	}
	if len(result.Clusters) != 1 || result.Clusters[0].Size() != 1 {
		t.Errorf("single article must become one singleton cluster, got %d clusters", len(result.Clusters))
	}
	if len(result.Edges) != 0 {
		t.Errorf("single article must produce no edges, got %d", len(result.Edges))
	}
}

func TestRunWhitespaceArticleBecomesSingleton(t *testing.T) {
	batch := append(ceoChangeBatch(), models.Article{
		ID: "blank-1", Source: "exame", Asset: "BANX3",
		PublishedAt: base.Add(time.Hour),
		Title:       "",
		Text:        "   \n\t  ",
	})

	result, err := mustAnalyzer(t).Run(batch)
	if err != nil {
		t.Fatalf("Run failed with whitespace article: %v", err)
	}

	var found bool
	for _, c := range result.Clusters {
		for _, id := range c.ArticleIDs {
			if id == "blank-1" {
				found = true
				if c.Size() != 1 {
					t.Errorf("whitespace article must be a singleton, cluster size %d", c.Size())
				}
			}
		}
	}
	if !found {
		t.Error("whitespace article missing from the partition")
	}
}

func TestRunInvalidArticleFailsFast(t *testing.T) {
	batch := ceoChangeBatch()
	batch[1].PublishedAt = time.Time{} // missing timestamp

	_, err := mustAnalyzer(t).Run(batch)
	if err == nil {
		t.Fatal("expected error for article without timestamp")
	}
	if !errors.Is(err, models.ErrInvalidArticle) {
		t.Errorf("error = %v, want ErrInvalidArticle", err)
	}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.ClusterThreshold = 1.5

	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected error for threshold outside [0,1]")
	}
	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestRunDeterminism(t *testing.T) {
	batch := ceoChangeBatch()
	analyzer := mustAnalyzer(t)

	first, err := analyzer.Run(batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		again, err := analyzer.Run(batch)
		if err != nil {
			t.Fatalf("rerun %d failed: %v", i, err)
		}
		if len(again.Clusters) != len(first.Clusters) {
			t.Fatalf("rerun %d: cluster count differs", i)
		}
		for j := range again.Clusters {
			a, b := again.Clusters[j], first.Clusters[j]
			if a.Size() != b.Size() || !a.FirstReport.Equal(b.FirstReport) {
				t.Errorf("rerun %d: cluster %d differs", i, j)
			}
			for k := range a.ArticleIDs {
				if a.ArticleIDs[k] != b.ArticleIDs[k] {
					t.Errorf("rerun %d: cluster %d member %d differs", i, j, k)
				}
			}
		}
		if len(again.Signal) != len(first.Signal) {
			t.Fatalf("rerun %d: signal length differs", i)
		}
		for j := range again.Signal {
			if again.Signal[j] != first.Signal[j] {
				t.Errorf("rerun %d: trend point %d differs", i, j)
			}
		}
		if len(again.Edges) != len(first.Edges) {
			t.Fatalf("rerun %d: edge count differs", i)
		}
		for j := range again.Edges {
			if again.Edges[j] != first.Edges[j] {
				t.Errorf("rerun %d: edge %d differs", i, j)
			}
		}
	}
}
