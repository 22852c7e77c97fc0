// Package trend turns the time-ordered cluster set of a run into a decayed,
// directional short-term signal.
//
// Clusters are bucketed into fixed windows by their representative (first
// report) timestamp. Each cluster contributes size × 2^(-Δt/halfLife) to its
// own window and every later one, so recent multi-source events dominate
// while older ones fade smoothly instead of dropping off a cliff. The window
// sequence is contiguous from the earliest to the latest article timestamp;
// windows without activity carry a zero score.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/dgaraujo/newstrend/internal/logger"
	"github.com/dgaraujo/newstrend/internal/models"
)

// Aggregator buckets clusters and computes the decayed density signal.
type Aggregator struct {
	bucketWidth time.Duration
	halfLife    time.Duration
	epsilon     float64
}

// NewAggregator creates a trend aggregator. Bucket width and half-life must
// be positive; config validation enforces this before a run.
func NewAggregator(bucketWidth, halfLife time.Duration, epsilon float64) *Aggregator {
	return &Aggregator{
		bucketWidth: bucketWidth,
		halfLife:    halfLife,
		epsilon:     epsilon,
	}
}

// bucket aligns t to the start of its window. Alignment truncates Unix time
// in UTC, so the same inputs bucket identically on every host.
func (g *Aggregator) bucket(t time.Time) time.Time {
	w := int64(g.bucketWidth / time.Second)
	sec := t.Unix()
	aligned := sec - ((sec%w)+w)%w
	return time.Unix(aligned, 0).UTC()
}

// Aggregate computes the trend signal for one run. earliest and latest are
// the run's article timestamp bounds; they anchor the window range even when
// the latest articles merged into earlier-reported clusters. Returns an
// empty signal for an empty cluster set.
func (g *Aggregator) Aggregate(clusters []models.Cluster, earliest, latest time.Time) models.TrendSignal {
	if len(clusters) == 0 || earliest.IsZero() || latest.Before(earliest) {
		return models.TrendSignal{}
	}

	start := g.bucket(earliest)
	end := g.bucket(latest)

	// Cluster contribution per window, keyed by window start
	sizeByWindow := make(map[time.Time]float64)
	for _, c := range clusters {
		w := g.bucket(c.FirstReport)
		sizeByWindow[w] += float64(c.Size())
	}

	// Sum contributions in window order: float addition is not associative,
	// so accumulating in map iteration order would vary run to run.
	contribWindows := make([]time.Time, 0, len(sizeByWindow))
	for w := range sizeByWindow {
		contribWindows = append(contribWindows, w)
	}
	sort.Slice(contribWindows, func(i, j int) bool {
		return contribWindows[i].Before(contribWindows[j])
	})

	signal := make(models.TrendSignal, 0, int(end.Sub(start)/g.bucketWidth)+1)
	prev := 0.0
	for w := start; !w.After(end); w = w.Add(g.bucketWidth) {
		score := 0.0
		for _, cw := range contribWindows {
			if cw.After(w) {
				break
			}
			dt := w.Sub(cw)
			score += sizeByWindow[cw] * math.Exp2(-float64(dt)/float64(g.halfLife))
		}

		direction := models.DirectionFlat
		diff := score - prev
		if diff > g.epsilon {
			direction = models.DirectionUp
		} else if diff < -g.epsilon {
			direction = models.DirectionDown
		}

		signal = append(signal, models.TrendPoint{
			Window:    w,
			Score:     score,
			Direction: direction,
		})
		prev = score
	}

	logger.Debug("trend: %d clusters over %d windows (bucket=%v, half-life=%v)",
		len(clusters), len(signal), g.bucketWidth, g.halfLife)
	return signal
}
