package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogObserver_Fields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	obs := NewLogObserver(zap.New(core))

	obs.OnStage(context.Background(), Event{Stage: StageBuild, Elapsed: 2 * time.Millisecond, Nodes: 3, Edges: 2})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "pipeline: stage complete", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "build", ctx["stage"])
		assert.Equal(t, int64(3), ctx["nodes"])
		assert.Equal(t, int64(2), ctx["edges"])
		assert.Equal(t, int64(2), ctx["duration_ms"])
	}
}

func TestNewLogObserver_NilUsesGlobal(t *testing.T) {
	obs := NewLogObserver(nil)
	assert.NotNil(t, obs.log)
}

func TestObservers_FanOut(t *testing.T) {
	var a, b []Stage
	obs := Observers(
		ObserverFunc(func(_ context.Context, ev Event) { a = append(a, ev.Stage) }),
		nil,
		ObserverFunc(func(_ context.Context, ev Event) { b = append(b, ev.Stage) }),
	)
	obs.OnStage(context.Background(), Event{Stage: StageIngest})
	obs.OnStage(context.Background(), Event{Stage: StagePredict})

	assert.Equal(t, []Stage{StageIngest, StagePredict}, a)
	assert.Equal(t, a, b)
}

func TestObservers_Empty(t *testing.T) {
	assert.IsType(t, NopObserver{}, Observers())
	assert.IsType(t, NopObserver{}, Observers(nil))
}
