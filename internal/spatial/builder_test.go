package spatial

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record mimics an ingested row whose coordinates may be missing.
type record struct {
	lat, lon *float64
}

func (r record) Coordinates() (Coordinate, bool) {
	if r.lat == nil || r.lon == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *r.lat, Lon: *r.lon}, true
}

func ptr(f float64) *float64 { return &f }

func TestBuild_DubaiListings(t *testing.T) {
	pts := []Point{Point(dubaiMarina), Point(dubaiDowntown), Point(dubaiAlBarsha)}

	// Marina to Al Barsha is about 14.5 km, so at 10 km the three listings
	// form a path rather than a triangle.
	g, err := Build(context.Background(), pts, WithRadius(10))
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, []Edge{
		{From: 0, To: 1, Weight: Haversine(dubaiMarina, dubaiDowntown)},
		{From: 1, To: 2, Weight: Haversine(dubaiDowntown, dubaiAlBarsha)},
	}, g.Edges())

	g, err = Build(context.Background(), pts, WithRadius(15))
	require.NoError(t, err)
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []Edge{
		{From: 0, To: 1, Weight: Haversine(dubaiMarina, dubaiDowntown)},
		{From: 0, To: 2, Weight: Haversine(dubaiMarina, dubaiAlBarsha)},
		{From: 1, To: 2, Weight: Haversine(dubaiDowntown, dubaiAlBarsha)},
	}, g.Edges())
}

func TestBuild_FiltersMissingCoordinates(t *testing.T) {
	recs := []record{
		{lat: ptr(25.276987), lon: ptr(55.296249)},
		{lat: nil, lon: ptr(55.1)},
		{lat: ptr(25.1), lon: nil},
		{},
		{lat: ptr(25.204849), lon: ptr(55.270783)},
	}

	g, err := Build(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())

	c, ok := g.Coordinate(1)
	require.True(t, ok)
	assert.Equal(t, dubaiDowntown, c)
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(context.Background(), []Point{})
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())

	g, err = Build(context.Background(), []Point{Point(dubaiMarina)})
	require.NoError(t, err)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestBuild_Threshold(t *testing.T) {
	pts := []Point{Point(dubaiMarina), Point(dubaiDowntown), Point(abuDhabiCenter)}

	g, err := Build(context.Background(), pts)
	require.NoError(t, err)
	assert.True(t, g.HasEdge(0, 1), "marina and downtown are within 10 km")
	assert.False(t, g.HasEdge(0, 2), "abu dhabi is far outside 10 km")
	assert.False(t, g.HasEdge(1, 2))
}

func TestBuild_BoundaryPolicy(t *testing.T) {
	pts := []Point{Point(dubaiMarina), Point(dubaiDowntown)}
	exact := Haversine(dubaiMarina, dubaiDowntown)

	inclusive, err := Build(context.Background(), pts, WithRadius(exact), WithPolicy(PolicyInclusive))
	require.NoError(t, err)
	assert.Equal(t, 1, inclusive.EdgeCount())

	exclusive, err := Build(context.Background(), pts, WithRadius(exact), WithPolicy(PolicyExclusive))
	require.NoError(t, err)
	assert.Equal(t, 0, exclusive.EdgeCount())
}

func TestBuild_CoincidentPointsZeroRadius(t *testing.T) {
	pts := []Point{Point(dubaiMarina), Point(dubaiMarina)}

	g, err := Build(context.Background(), pts, WithRadius(0))
	require.NoError(t, err)
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 0.0, g.Edges()[0].Weight)
}

func TestValidRadius(t *testing.T) {
	assert.True(t, ValidRadius(0))
	assert.True(t, ValidRadius(DefaultRadiusKM))
	assert.False(t, ValidRadius(-0.5))
	assert.False(t, ValidRadius(math.NaN()))
	assert.False(t, ValidRadius(math.Inf(1)))
}

func TestBuild_InvalidOptions(t *testing.T) {
	_, err := Build(context.Background(), []Point{}, WithRadius(-1))
	assert.Error(t, err)

	_, err = Build(context.Background(), []Point{}, WithRadius(math.NaN()))
	assert.Error(t, err)

	_, err = Build(context.Background(), []Point{}, WithPolicy("nearest"))
	assert.Error(t, err)
}

func TestBuild_SimpleGraphInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]Point, 120)
	for i := range pts {
		pts[i] = Point{Lat: 25.0 + rng.Float64()*0.3, Lon: 55.0 + rng.Float64()*0.3}
	}

	g, err := Build(context.Background(), pts, WithRadius(8))
	require.NoError(t, err)

	seen := make(map[[2]int]bool)
	for _, e := range g.Edges() {
		assert.Less(t, e.From, e.To, "no self edges and canonical order")
		key := [2]int{e.From, e.To}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
		assert.LessOrEqual(t, e.Weight, 8.0)
	}

	// Every pair within range has an edge.
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			want := Haversine(Coordinate(pts[i]), Coordinate(pts[j])) <= 8
			assert.Equal(t, want, g.HasEdge(i, j))
		}
	}
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pts := make([]Point, 200)
	for i := range pts {
		pts[i] = Point{Lat: 25.0 + rng.Float64()*0.2, Lon: 55.1 + rng.Float64()*0.2}
	}

	seq, err := Build(context.Background(), pts, WithRadius(5))
	require.NoError(t, err)
	par, err := Build(context.Background(), pts, WithRadius(5), WithWorkers(8))
	require.NoError(t, err)

	assert.Equal(t, seq.Edges(), par.Edges())
	for i := 0; i < seq.NodeCount(); i++ {
		assert.Equal(t, seq.Neighbors(i), par.Neighbors(i))
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pts := []Point{Point(dubaiMarina), Point(dubaiDowntown), Point(dubaiAlBarsha)}
	_, err := Build(ctx, pts)
	assert.Error(t, err)
	_, err = Build(ctx, pts, WithWorkers(4))
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyInclusive, p)

	p, err = ParsePolicy(" Exclusive ")
	require.NoError(t, err)
	assert.Equal(t, PolicyExclusive, p)

	_, err = ParsePolicy("strict")
	assert.Error(t, err)
}
