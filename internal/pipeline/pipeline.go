// Package pipeline runs the listing analysis end to end: ingest, graph
// construction, centrality, prediction and optional persistence.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/ingest"
	"github.com/sells-group/geocentral/internal/model"
	"github.com/sells-group/geocentral/internal/predict"
	"github.com/sells-group/geocentral/internal/spatial"
	"github.com/sells-group/geocentral/internal/store"
)

// Metric selects the centrality measure.
type Metric string

const (
	MetricCloseness Metric = "closeness"
	MetricDegree    Metric = "degree"
)

// ParseMetric accepts "closeness" or "degree" (case-insensitive). Empty
// selects closeness.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricCloseness:
		return MetricCloseness, nil
	case MetricDegree:
		return MetricDegree, nil
	default:
		return "", eris.Errorf("pipeline: unknown metric %q", s)
	}
}

// Options configures a Pipeline.
type Options struct {
	RadiusKM      float64
	Policy        spatial.Policy
	SampleSize    int
	Workers       int
	Metric        Metric
	PredictFactor float64
}

// DefaultOptions returns the stock configuration: 10 km inclusive radius,
// closeness over the first 50 nodes, sequential execution.
func DefaultOptions() Options {
	return Options{
		RadiusKM:      spatial.DefaultRadiusKM,
		Policy:        spatial.PolicyInclusive,
		SampleSize:    50,
		Workers:       1,
		Metric:        MetricCloseness,
		PredictFactor: predict.DefaultFactor,
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID       string
	Params      model.RunParams
	Listings    []model.Listing
	Graph       *spatial.Graph
	Scores      []centrality.Score
	Predictions []float64
	Timings     model.StageTimings
}

// Top returns the k highest ranked scores.
func (r *Result) Top(k int) []centrality.Score {
	return centrality.Top(r.Scores, k)
}

// FirstPrediction returns the prediction for the first listing, if any.
func (r *Result) FirstPrediction() (float64, bool) {
	if len(r.Predictions) == 0 {
		return 0, false
	}
	return r.Predictions[0], true
}

// RunResult converts r into its persisted form.
func (r *Result) RunResult() *model.RunResult {
	out := &model.RunResult{
		Listings: len(r.Listings),
		Scores:   r.Scores,
		Timings:  r.Timings,
	}
	if r.Graph != nil {
		out.Nodes = r.Graph.NodeCount()
		out.Edges = r.Graph.EdgeCount()
	}
	if p, ok := r.FirstPrediction(); ok {
		out.FirstPrediction = &p
	}
	return out
}

// Pipeline runs analyses with a fixed configuration.
type Pipeline struct {
	opts     Options
	store    store.Store
	observer Observer
}

// New creates a Pipeline. st may be nil to skip persistence; obs may be nil
// to discard stage events.
func New(opts Options, st store.Store, obs Observer) *Pipeline {
	if obs == nil {
		obs = NopObserver{}
	}
	if opts.Metric == "" {
		opts.Metric = MetricCloseness
	}
	return &Pipeline{opts: opts, store: st, observer: obs}
}

// Params reports the run parameters for source.
func (p *Pipeline) Params(source string) model.RunParams {
	return model.RunParams{
		Source:     source,
		RadiusKM:   p.opts.RadiusKM,
		Policy:     string(p.opts.Policy),
		Metric:     string(p.opts.Metric),
		SampleSize: p.opts.SampleSize,
	}
}

// RunFile loads listings from path and analyzes them.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Result, error) {
	return p.execute(ctx, path, func(ctx context.Context) ([]model.Listing, error) {
		return ingest.Load(ctx, path)
	})
}

// Run analyzes listings already in memory. source labels the run record.
func (p *Pipeline) Run(ctx context.Context, source string, listings []model.Listing) (*Result, error) {
	return p.execute(ctx, source, func(context.Context) ([]model.Listing, error) {
		return listings, nil
	})
}

func (p *Pipeline) execute(ctx context.Context, source string, load func(context.Context) ([]model.Listing, error)) (*Result, error) {
	log := zap.L().With(zap.String("source", source))
	start := time.Now()

	result := &Result{Params: p.Params(source)}
	rec := p.begin(ctx, log, result.Params)
	result.RunID = rec.id

	fail := func(err error) (*Result, error) {
		rec.fail(ctx, err)
		return nil, err
	}

	// Ingest.
	t := time.Now()
	listings, err := load(ctx)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: ingest"))
	}
	result.Listings = listings
	result.Timings.Ingest = time.Since(t)
	p.observer.OnStage(ctx, Event{
		Stage:    StageIngest,
		Elapsed:  result.Timings.Ingest,
		Listings: len(listings),
		Located:  model.CountLocated(listings),
	})

	// Build.
	t = time.Now()
	g, err := spatial.Build(ctx, listings,
		spatial.WithRadius(p.opts.RadiusKM),
		spatial.WithPolicy(p.opts.Policy),
		spatial.WithWorkers(p.opts.Workers),
	)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: build graph"))
	}
	result.Graph = g
	result.Timings.Build = time.Since(t)
	p.observer.OnStage(ctx, Event{
		Stage:   StageBuild,
		Elapsed: result.Timings.Build,
		Nodes:   g.NodeCount(),
		Edges:   g.EdgeCount(),
	})

	// Analyze.
	t = time.Now()
	scores, err := p.score(ctx, g)
	if err != nil {
		return fail(eris.Wrap(err, "pipeline: analyze"))
	}
	result.Scores = scores
	result.Timings.Analyze = time.Since(t)
	p.observer.OnStage(ctx, Event{
		Stage:   StageAnalyze,
		Elapsed: result.Timings.Analyze,
		Nodes:   g.NodeCount(),
		Scored:  len(scores),
	})

	// Predict.
	t = time.Now()
	result.Predictions = predict.Linear(listings, p.opts.PredictFactor)
	result.Timings.Predict = time.Since(t)
	p.observer.OnStage(ctx, Event{
		Stage:    StagePredict,
		Elapsed:  result.Timings.Predict,
		Listings: len(result.Predictions),
	})

	result.Timings.Total = time.Since(start)
	rec.complete(ctx, result)
	return result, nil
}

func (p *Pipeline) score(ctx context.Context, g *spatial.Graph) ([]centrality.Score, error) {
	switch p.opts.Metric {
	case MetricDegree:
		scores := centrality.Degree(g)
		centrality.Sort(scores)
		return scores, nil
	case MetricCloseness:
		return centrality.Analyze(ctx, g, p.opts.SampleSize, centrality.WithWorkers(p.opts.Workers))
	default:
		return nil, eris.Errorf("pipeline: unknown metric %q", p.opts.Metric)
	}
}

// recorder mirrors pipeline progress into the store. Store failures are
// logged and never fail the analysis.
type recorder struct {
	st  store.Store
	id  string
	log *zap.Logger
}

func (p *Pipeline) begin(ctx context.Context, log *zap.Logger, params model.RunParams) *recorder {
	rec := &recorder{log: log}
	if p.store == nil {
		return rec
	}
	run, err := p.store.CreateRun(ctx, params)
	if err != nil {
		log.Warn("pipeline: failed to create run", zap.Error(err))
		return rec
	}
	rec.st = p.store
	rec.id = run.ID
	rec.log = log.With(zap.String("run_id", run.ID))
	if err := rec.st.UpdateRunStatus(ctx, rec.id, model.RunStatusRunning); err != nil {
		rec.log.Warn("pipeline: failed to update status", zap.Error(err))
	}
	return rec
}

func (r *recorder) fail(ctx context.Context, cause error) {
	r.log.Error("pipeline: run failed", zap.Error(cause))
	if r.st == nil {
		return
	}
	if err := r.st.FailRun(context.WithoutCancel(ctx), r.id, cause.Error()); err != nil {
		r.log.Warn("pipeline: failed to record failure", zap.Error(err))
	}
}

func (r *recorder) complete(ctx context.Context, res *Result) {
	if r.st == nil {
		return
	}
	if err := r.st.SaveNodes(ctx, r.id, res.Graph); err != nil {
		r.log.Warn("pipeline: failed to save nodes", zap.Error(err))
	}
	if err := r.st.CompleteRun(ctx, r.id, res.RunResult()); err != nil {
		r.log.Warn("pipeline: failed to save run result", zap.Error(err))
	}
}
