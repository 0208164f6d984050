package centrality

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geocentral/internal/spatial"
)

// Score pairs a node index with its centrality value.
type Score struct {
	Node  int     `json:"node" yaml:"node"`
	Value float64 `json:"score" yaml:"score"`
}

// Option configures Analyze.
type Option func(*analyzer)

type analyzer struct {
	workers int
}

// WithWorkers runs up to n traversals concurrently. Values below 2 run
// sequentially. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(a *analyzer) { a.workers = n }
}

// Analyze scores the first sampleSize nodes in index order and returns them
// sorted by score descending. A node's score is 1/TotalDistance, or 0 when
// the total is 0 (isolated node). Ties are broken by ascending node index and
// NaN scores sort last. A sampleSize larger than the node count analyzes
// every node.
func Analyze(ctx context.Context, g *spatial.Graph, sampleSize int, opts ...Option) ([]Score, error) {
	if sampleSize < 0 {
		return nil, eris.Errorf("centrality: sample size must be non-negative, got %d", sampleSize)
	}
	a := &analyzer{workers: 1}
	for _, opt := range opts {
		opt(a)
	}

	n := min(sampleSize, g.NodeCount())
	scores := make([]Score, n)

	if a.workers < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "centrality: analyze cancelled")
			}
			scores[i] = Score{Node: i, Value: closeness(TotalDistance(g, i))}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(a.workers)
		for i := 0; i < n; i++ {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				scores[i] = Score{Node: i, Value: closeness(TotalDistance(g, i))}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, eris.Wrap(err, "centrality: analyze cancelled")
		}
	}

	Sort(scores)
	return scores, nil
}

func closeness(total float64) float64 {
	if total > 0 {
		return 1 / total
	}
	return 0
}

// Sort orders scores by value descending, then by node ascending. NaN values
// go last.
func Sort(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		aNaN, bNaN := math.IsNaN(a.Value), math.IsNaN(b.Value)
		switch {
		case aNaN && bNaN:
			return a.Node < b.Node
		case aNaN:
			return false
		case bNaN:
			return true
		case a.Value != b.Value:
			return a.Value > b.Value
		default:
			return a.Node < b.Node
		}
	})
}

// Top returns at most k leading entries of a ranked slice.
func Top(scores []Score, k int) []Score {
	if k < 0 {
		k = 0
	}
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k]
}

// Degree returns each node's edge count in index order. Values are float64 so
// the result can be ranked and exported like closeness scores.
func Degree(g *spatial.Graph) []Score {
	out := make([]Score, g.NodeCount())
	for i := range out {
		out[i] = Score{Node: i, Value: float64(g.Degree(i))}
	}
	return out
}
