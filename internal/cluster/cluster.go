// Package cluster groups articles into events by connected-component
// clustering over the similarity graph.
//
// Edges are processed in descending score order and every edge at or above
// the clustering threshold merges its endpoints in a union-find structure;
// articles left unconnected become singleton clusters. Union-find merging is
// commutative, so the resulting partition does not depend on edge discovery
// order. The output clusters always partition the input article set exactly.
package cluster

import (
	"sort"
	"strings"

	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
	"github.com/google/uuid"
)

// Builder builds event clusters from similarity edges.
type Builder struct {
	threshold float64
}

// NewBuilder creates a cluster builder. Higher thresholds favor precision
// (fewer false merges), lower ones favor recall (more aggressive
// deduplication). The threshold is validated with the rest of the
// configuration before a run starts.
func NewBuilder(threshold float64) *Builder {
	return &Builder{threshold: threshold}
}

// Build partitions the articles into clusters. Every article ends up in
// exactly one cluster; an article with no qualifying edge, including one
// whose empty text produced a zero vector, becomes a singleton.
//
// Clusters are ordered by representative timestamp, ties broken by the
// smallest member ID, and member IDs within a cluster are sorted, so
// identical inputs always yield an identical partition layout.
func (b *Builder) Build(articles []models.Article, edges []models.Edge) []models.Cluster {
	if len(articles) == 0 {
		return []models.Cluster{}
	}

	byID := make(map[string]*models.Article, len(articles))
	uf := newUnionFind()
	for i := range articles {
		byID[articles[i].ID] = &articles[i]
		uf.add(articles[i].ID)
	}

	// Descending score, then endpoint order for determinism among ties
	sorted := make([]models.Edge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if sorted[i].ArticleA != sorted[j].ArticleA {
			return sorted[i].ArticleA < sorted[j].ArticleA
		}
		return sorted[i].ArticleB < sorted[j].ArticleB
	})

	merged := 0
	for _, e := range sorted {
		if e.Score < b.threshold {
			break
		}
		// Edges may reference articles outside the batch; ignore them
		if _, ok := byID[e.ArticleA]; !ok {
			continue
		}
		if _, ok := byID[e.ArticleB]; !ok {
			continue
		}
		if uf.union(e.ArticleA, e.ArticleB) {
			merged++
		}
	}

	groups := make(map[string][]string)
	for _, a := range articles {
		root := uf.find(a.ID)
		groups[root] = append(groups[root], a.ID)
	}

	clusters := make([]models.Cluster, 0, len(groups))
	for _, memberIDs := range groups {
		clusters = append(clusters, b.assemble(memberIDs, byID))
	}

	sort.Slice(clusters, func(i, j int) bool {
		if !clusters[i].FirstReport.Equal(clusters[j].FirstReport) {
			return clusters[i].FirstReport.Before(clusters[j].FirstReport)
		}
		return clusters[i].ArticleIDs[0] < clusters[j].ArticleIDs[0]
	})

	logger.Debug("cluster: %d articles, %d edges merged, %d clusters", len(articles), merged, len(clusters))
	return clusters
}

// assemble materializes one cluster from its member IDs: sorted members,
// distinct sorted sources, earliest member timestamp as the first report,
// and member texts joined for the downstream summarization collaborator.
func (b *Builder) assemble(memberIDs []string, byID map[string]*models.Article) models.Cluster {
	sort.Strings(memberIDs)

	first := *byID[memberIDs[0]]
	sourceSet := make(map[string]struct{})
	c := models.Cluster{
		ID:          uuid.New().String(),
		Asset:       first.Asset,
		ArticleIDs:  memberIDs,
		FirstReport: first.PublishedAt,
	}

	// Combined text in publication order, ID as tiebreak
	ordered := make([]*models.Article, 0, len(memberIDs))
	for _, id := range memberIDs {
		a := byID[id]
		ordered = append(ordered, a)
		sourceSet[a.Source] = struct{}{}
		if a.PublishedAt.Before(c.FirstReport) {
			c.FirstReport = a.PublishedAt
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PublishedAt.Before(ordered[j].PublishedAt)
	})

	var sb strings.Builder
	for i, a := range ordered {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		if a.Title != "" {
			sb.WriteString(a.Title)
			sb.WriteString("\n")
		}
		sb.WriteString(a.Text)
	}
	c.CombinedText = sb.String()

	c.Sources = make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		c.Sources = append(c.Sources, s)
	}
	sort.Strings(c.Sources)

	return c
}

// unionFind is a disjoint-set forest with path compression and union by size.
type unionFind struct {
	parent map[string]string
	size   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{
		parent: make(map[string]string),
		size:   make(map[string]int),
	}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; ok {
		return
	}
	u.parent[id] = id
	u.size[id] = 1
}

func (u *unionFind) find(id string) string {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	// Path compression
	for u.parent[id] != root {
		id, u.parent[id] = u.parent[id], root
	}
	return root
}

// union merges the sets containing a and b; reports whether a merge happened.
// The smaller root is attached to the larger; on equal sizes the
// lexicographically smaller root wins, keeping roots deterministic.
func (u *unionFind) union(a, b string) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	if u.size[ra] < u.size[rb] || (u.size[ra] == u.size[rb] && rb < ra) {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
	return true
}
