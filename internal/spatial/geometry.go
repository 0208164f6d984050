package spatial

import (
	"github.com/twpayne/go-geom"
)

// SRID is the spatial reference used for all exported geometries (WGS 84).
const SRID = 4326

// PointGeom returns node i as a go-geom point in lon/lat order.
func (g *Graph) PointGeom(i int) (*geom.Point, bool) {
	c, ok := g.Coordinate(i)
	if !ok {
		return nil, false
	}
	return geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(SRID), true
}

// EdgeGeom returns e as a two-vertex line string.
func (g *Graph) EdgeGeom(e Edge) (*geom.LineString, bool) {
	a, okA := g.Coordinate(e.From)
	b, okB := g.Coordinate(e.To)
	if !okA || !okB {
		return nil, false
	}
	return geom.NewLineStringFlat(geom.XY, []float64{a.Lon, a.Lat, b.Lon, b.Lat}).SetSRID(SRID), true
}

// Bounds returns the bounding box of all nodes, or nil for an empty graph.
func (g *Graph) Bounds() *geom.Bounds {
	if len(g.coords) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, c := range g.coords {
		b.Extend(geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}))
	}
	return b
}
