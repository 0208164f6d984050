package export

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/spatial"
)

// scoreIndex maps node index to score for the analyzed sample.
func scoreIndex(scores []centrality.Score) map[int]float64 {
	idx := make(map[int]float64, len(scores))
	for _, s := range scores {
		idx[s.Node] = s.Value
	}
	return idx
}

// FeatureCollection converts g into GeoJSON features: one Point per node
// (properties node, degree and score when sampled) followed by one
// LineString per edge (properties from, to, weight_km).
func FeatureCollection(g *spatial.Graph, scores []centrality.Score) *geojson.FeatureCollection {
	idx := scoreIndex(scores)
	fc := &geojson.FeatureCollection{
		BBox:     g.Bounds(),
		Features: make([]*geojson.Feature, 0, g.NodeCount()+g.EdgeCount()),
	}

	for _, n := range g.Nodes() {
		pt, ok := g.PointGeom(n)
		if !ok {
			continue
		}
		props := map[string]any{
			"kind":   "node",
			"node":   n,
			"degree": g.Degree(n),
		}
		if v, ok := idx[n]; ok {
			props["score"] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         "node-" + strconv.Itoa(n),
			Geometry:   pt,
			Properties: props,
		})
	}

	for i, e := range g.Edges() {
		ls, ok := g.EdgeGeom(e)
		if !ok {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       "edge-" + strconv.Itoa(i),
			Geometry: ls,
			Properties: map[string]any{
				"kind":      "edge",
				"from":      e.From,
				"to":        e.To,
				"weight_km": e.Weight,
			},
		})
	}
	return fc
}

// WriteGeoJSON writes g and its scores as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, g *spatial.Graph, scores []centrality.Score) error {
	data, err := json.Marshal(FeatureCollection(g, scores))
	if err != nil {
		return eris.Wrap(err, "export: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}
