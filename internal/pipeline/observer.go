package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Stage names a pipeline boundary reported to an Observer.
type Stage string

const (
	StageIngest  Stage = "ingest"
	StageBuild   Stage = "build"
	StageAnalyze Stage = "analyze"
	StagePredict Stage = "predict"
)

// Event is emitted once after each stage completes. Counts that a stage does
// not produce are left at zero.
type Event struct {
	Stage    Stage
	Elapsed  time.Duration
	Listings int
	Located  int
	Nodes    int
	Edges    int
	Scored   int
}

// Observer receives stage events. Implementations must be safe to call from
// the goroutine running the pipeline.
type Observer interface {
	OnStage(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) OnStage(ctx context.Context, ev Event) { f(ctx, ev) }

// NopObserver discards events.
type NopObserver struct{}

func (NopObserver) OnStage(context.Context, Event) {}

// LogObserver writes each event to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver returns a LogObserver. A nil logger uses the global one.
func NewLogObserver(l *zap.Logger) *LogObserver {
	if l == nil {
		l = zap.L()
	}
	return &LogObserver{log: l}
}

func (o *LogObserver) OnStage(_ context.Context, ev Event) {
	fields := []zap.Field{
		zap.String("stage", string(ev.Stage)),
		zap.Int64("duration_ms", ev.Elapsed.Milliseconds()),
	}
	switch ev.Stage {
	case StageIngest:
		fields = append(fields, zap.Int("listings", ev.Listings), zap.Int("located", ev.Located))
	case StageBuild:
		fields = append(fields, zap.Int("nodes", ev.Nodes), zap.Int("edges", ev.Edges))
	case StageAnalyze:
		fields = append(fields, zap.Int("scored", ev.Scored))
	case StagePredict:
		fields = append(fields, zap.Int("predictions", ev.Listings))
	}
	o.log.Info("pipeline: stage complete", fields...)
}

// multiObserver fans an event out in order.
type multiObserver []Observer

func (m multiObserver) OnStage(ctx context.Context, ev Event) {
	for _, o := range m {
		o.OnStage(ctx, ev)
	}
}

// Observers combines several observers into one. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	var m multiObserver
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	if len(m) == 0 {
		return NopObserver{}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}
