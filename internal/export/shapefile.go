package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/spatial"
)

// Shapefile attribute columns, in order.
var shapefileFields = []shp.Field{
	shp.NumberField("NODE", 10),
	shp.NumberField("DEGREE", 10),
	shp.NumberField("SAMPLED", 1),
	shp.FloatField("SCORE", 24, 12),
}

// WriteShapefile writes every node of g as a point with its degree and, for
// sampled nodes, its score. path names the .shp file; the .shx and .dbf
// siblings are created next to it.
func WriteShapefile(path string, g *spatial.Graph, scores []centrality.Score) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	if err := writeShapes(w, g, scores); err != nil {
		w.Close()
		return err
	}
	w.Close()

	return fixDBFName(strings.TrimSuffix(path, filepath.Ext(path)))
}

// fixDBFName moves the attribute table go-shp writes as "<base>dbf" to
// "<base>.dbf" so readers can find it next to the .shp.
func fixDBFName(base string) error {
	src := base + "dbf"
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.Rename(src, base+".dbf"); err != nil {
		return eris.Wrapf(err, "export: rename %s", src)
	}
	return nil
}

func writeShapes(w *shp.Writer, g *spatial.Graph, scores []centrality.Score) error {
	if err := w.SetFields(shapefileFields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	idx := scoreIndex(scores)
	for _, n := range g.Nodes() {
		c, _ := g.Coordinate(n)
		row := int(w.Write(&shp.Point{X: c.Lon, Y: c.Lat}))

		score, sampled := idx[n]
		sampledFlag := 0
		if sampled {
			sampledFlag = 1
		}
		for field, val := range []any{n, g.Degree(n), sampledFlag, score} {
			if err := w.WriteAttribute(row, field, val); err != nil {
				return eris.Wrapf(err, "export: write attribute %d for node %d", field, n)
			}
		}
	}
	return nil
}
