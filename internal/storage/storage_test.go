package storage

import (
	"testing"
	"time"

	"github.com/dgaraujo/newstrend/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun() (Run, []models.Cluster, models.TrendSignal) {
	ranAt := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC)
	run := Run{ID: "run-1", Asset: "BANX3", RanAt: ranAt, Articles: 4}

	clusters := []models.Cluster{
		{
			ID:           "cluster-1",
			Asset:        "BANX3",
			ArticleIDs:   []string{"exame-1", "infomoney-1", "valor-1"},
			Sources:      []string{"exame", "infomoney", "valor"},
			FirstReport:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			CombinedText: "CEO steps down\nBody one.\n\n---\n\nCEO resigns\nBody two.",
		},
		{
			ID:           "cluster-2",
			Asset:        "BANX3",
			ArticleIDs:   []string{"exame-2"},
			Sources:      []string{"exame"},
			FirstReport:  time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC),
			CombinedText: "Quarterly earnings\nBody three.",
		},
	}

	signal := models.TrendSignal{
		{Window: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Score: 3.0, Direction: models.DirectionUp},
		{Window: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Score: 3.4, Direction: models.DirectionUp},
	}

	return run, clusters, signal
}

func TestSaveRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	run, clusters, signal := sampleRun()

	if err := store.SaveRun(run, clusters, signal); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := store.GetClusters(run.ID)
	if err != nil {
		t.Fatalf("GetClusters failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(got))
	}
	if got[0].ID != "cluster-1" || got[1].ID != "cluster-2" {
		t.Errorf("clusters not ordered by first report: %s, %s", got[0].ID, got[1].ID)
	}
	if len(got[0].ArticleIDs) != 3 {
		t.Errorf("expected 3 members, got %v", got[0].ArticleIDs)
	}
	for i, want := range []string{"exame-1", "infomoney-1", "valor-1"} {
		if got[0].ArticleIDs[i] != want {
			t.Errorf("member %d = %s, want %s", i, got[0].ArticleIDs[i], want)
		}
	}
	for i, want := range []string{"exame", "infomoney", "valor"} {
		if got[0].Sources[i] != want {
			t.Errorf("source %d = %s, want %s", i, got[0].Sources[i], want)
		}
	}
	if !got[0].FirstReport.Equal(clusters[0].FirstReport) {
		t.Errorf("first report = %v, want %v", got[0].FirstReport, clusters[0].FirstReport)
	}
	if got[0].CombinedText != clusters[0].CombinedText {
		t.Error("combined text not preserved")
	}

	trend, err := store.GetTrend(run.ID)
	if err != nil {
		t.Fatalf("GetTrend failed: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("expected 2 trend points, got %d", len(trend))
	}
	if !trend[0].Window.Equal(signal[0].Window) {
		t.Errorf("window = %v, want %v", trend[0].Window, signal[0].Window)
	}
	if trend[1].Score != 3.4 || trend[1].Direction != models.DirectionUp {
		t.Errorf("trend point = %+v", trend[1])
	}
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	run, clusters, signal := sampleRun()
	if err := store.SaveRun(run, clusters, signal); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	later := run
	later.ID = "run-2"
	later.RanAt = run.RanAt.Add(time.Hour)
	later.Articles = 6
	if err := store.SaveRun(later, nil, nil); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runs, err := store.ListRuns("BANX3", 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].Articles != 6 {
		t.Errorf("article count = %d, want 6", runs[0].Articles)
	}

	other, err := store.ListRuns("OTHER", 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no runs for unknown asset, got %d", len(other))
	}
}

func TestSaveRunRejectsEmptyID(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveRun(Run{Asset: "BANX3", RanAt: time.Now()}, nil, nil); err == nil {
		t.Fatal("expected error for empty run ID")
	}
}

func TestSaveRunRejectsInvalidCluster(t *testing.T) {
	store := newTestStore(t)
	run, _, _ := sampleRun()
	bad := []models.Cluster{{ID: "c1"}}
	if err := store.SaveRun(run, bad, nil); err == nil {
		t.Fatal("expected error for invalid cluster")
	}

	// The failed save must not leave a partial run behind.
	runs, err := store.ListRuns(run.Asset, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("rollback left %d runs behind", len(runs))
	}
}

func TestSaveRunDuplicateID(t *testing.T) {
	store := newTestStore(t)
	run, clusters, signal := sampleRun()
	if err := store.SaveRun(run, clusters, signal); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := store.SaveRun(run, clusters, signal); err == nil {
		t.Fatal("expected error saving a run ID twice")
	}
}
