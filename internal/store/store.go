package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/model"
	"github.com/sells-group/geocentral/internal/spatial"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store persists analysis runs, their ranked scores and the graph nodes they
// were computed over.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	GetScores(ctx context.Context, runID string) ([]centrality.Score, error)
	SaveNodes(ctx context.Context, runID string, g *spatial.Graph) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		st, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		if !isPostgres(driver) {
			return nil, eris.Errorf("store: unknown driver %q", driver)
		}
		st, err := NewPostgres(ctx, dsn, poolCfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

// nodeRow is one persisted graph node.
type nodeRow struct {
	Node   int
	Lat    float64
	Lon    float64
	Degree int
	EWKB   []byte
}

// nodeRows flattens g into rows with an EWKB point (SRID 4326) per node.
func nodeRows(g *spatial.Graph) ([]nodeRow, error) {
	rows := make([]nodeRow, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		c, _ := g.Coordinate(n)
		pt, _ := g.PointGeom(n)
		data, err := ewkb.Marshal(pt, ewkb.NDR)
		if err != nil {
			return nil, eris.Wrapf(err, "store: encode node %d", n)
		}
		rows = append(rows, nodeRow{Node: n, Lat: c.Lat, Lon: c.Lon, Degree: g.Degree(n), EWKB: data})
	}
	return rows, nil
}

func listLimit(filter RunFilter) int {
	if filter.Limit <= 0 {
		return 100
	}
	return filter.Limit
}
