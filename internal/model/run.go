package model

import (
	"time"

	"github.com/sells-group/geocentral/internal/centrality"
)

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the inputs an analysis was run with.
type RunParams struct {
	Source     string  `json:"source" yaml:"source"`
	RadiusKM   float64 `json:"radius_km" yaml:"radius_km"`
	Policy     string  `json:"policy" yaml:"policy"`
	Metric     string  `json:"metric" yaml:"metric"`
	SampleSize int     `json:"sample_size" yaml:"sample_size"`
}

// Run is a persisted analysis run.
type Run struct {
	ID        string     `json:"id"`
	Params    RunParams  `json:"params"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the outcome of a completed run.
type RunResult struct {
	Listings        int                `json:"listings" yaml:"listings"`
	Nodes           int                `json:"nodes" yaml:"nodes"`
	Edges           int                `json:"edges" yaml:"edges"`
	Scores          []centrality.Score `json:"scores" yaml:"scores"`
	FirstPrediction *float64           `json:"first_prediction,omitempty" yaml:"first_prediction,omitempty"`
	Timings         StageTimings       `json:"timings" yaml:"timings"`
}

// StageTimings records how long each pipeline stage took.
type StageTimings struct {
	Ingest  time.Duration `json:"ingest" yaml:"ingest"`
	Build   time.Duration `json:"build" yaml:"build"`
	Analyze time.Duration `json:"analyze" yaml:"analyze"`
	Predict time.Duration `json:"predict" yaml:"predict"`
	Total   time.Duration `json:"total" yaml:"total"`
}
