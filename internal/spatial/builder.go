package spatial

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// DefaultRadiusKM is the default inclusion radius in kilometers.
const DefaultRadiusKM = 10.0

// Policy decides how a pair distance is compared against the radius.
type Policy string

const (
	// PolicyInclusive connects pairs with distance <= radius.
	PolicyInclusive Policy = "inclusive"
	// PolicyExclusive connects pairs with distance < radius.
	PolicyExclusive Policy = "exclusive"
)

// ParsePolicy converts a config string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyInclusive:
		return PolicyInclusive, nil
	case PolicyExclusive:
		return PolicyExclusive, nil
	default:
		return "", eris.Errorf("spatial: unknown inclusion policy %q", s)
	}
}

// Includes reports whether distance d is within radius under p.
func (p Policy) Includes(d, radius float64) bool {
	if p == PolicyExclusive {
		return d < radius
	}
	return d <= radius
}

// Locatable is anything that may carry a coordinate. Records without one
// never become nodes.
type Locatable interface {
	Coordinates() (Coordinate, bool)
}

// Point adapts a bare Coordinate to Locatable.
type Point Coordinate

// Coordinates implements Locatable.
func (p Point) Coordinates() (Coordinate, bool) { return Coordinate(p), true }

// BuilderOption configures Build.
type BuilderOption func(*builder)

type builder struct {
	radius  float64
	policy  Policy
	workers int
}

// ValidRadius reports whether km is usable as an inclusion radius. Zero is
// allowed and connects only coincident points under PolicyInclusive.
func ValidRadius(km float64) bool {
	return km >= 0 && !math.IsInf(km, 1)
}

// WithRadius sets the inclusion radius in kilometers.
func WithRadius(km float64) BuilderOption {
	return func(b *builder) { b.radius = km }
}

// WithPolicy sets the inclusion policy.
func WithPolicy(p Policy) BuilderOption {
	return func(b *builder) { b.policy = p }
}

// WithWorkers evaluates rows of the pair matrix on up to n goroutines.
// Values below 2 build sequentially.
func WithWorkers(n int) BuilderOption {
	return func(b *builder) { b.workers = n }
}

// Build constructs a proximity graph from records. Records without both
// coordinates are skipped; the rest become nodes in input order. Every pair
// (i, j) with i < j is evaluated once, and an edge is added when the
// haversine distance satisfies the policy. The edge order is the same for
// sequential and parallel builds.
func Build[T Locatable](ctx context.Context, records []T, opts ...BuilderOption) (*Graph, error) {
	b := &builder{radius: DefaultRadiusKM, policy: PolicyInclusive, workers: 1}
	for _, opt := range opts {
		opt(b)
	}
	if !ValidRadius(b.radius) {
		return nil, eris.Errorf("spatial: radius must be non-negative, got %v", b.radius)
	}
	if b.policy != PolicyInclusive && b.policy != PolicyExclusive {
		return nil, eris.Errorf("spatial: unknown inclusion policy %q", b.policy)
	}

	g := NewGraph()
	for _, r := range records {
		if c, ok := r.Coordinates(); ok {
			g.AddNode(c)
		}
	}

	n := g.NodeCount()
	if n < 2 {
		return g, nil
	}

	rows := make([][]Edge, n)
	if b.workers < 2 {
		for i := 0; i < n; i++ {
			if i%256 == 0 && ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "spatial: build cancelled")
			}
			rows[i] = b.row(g.coords, i)
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(b.workers)
		for i := 0; i < n-1; i++ {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				rows[i] = b.row(g.coords, i)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, eris.Wrap(err, "spatial: build cancelled")
		}
	}

	for _, row := range rows {
		for _, e := range row {
			g.appendEdge(e)
		}
	}
	return g, nil
}

// row evaluates the pairs (i, j) for all j > i.
func (b *builder) row(coords []Coordinate, i int) []Edge {
	var out []Edge
	for j := i + 1; j < len(coords); j++ {
		d := Haversine(coords[i], coords[j])
		if b.policy.Includes(d, b.radius) {
			out = append(out, Edge{From: i, To: j, Weight: d})
		}
	}
	return out
}
