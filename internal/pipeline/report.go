package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FormatReport renders a human-readable summary of a run: totals, the top k
// central nodes, the first prediction and stage timings.
func FormatReport(r *Result, k int) string {
	var b strings.Builder

	source := r.Params.Source
	if source == "" {
		source = "(in memory)"
	}
	fmt.Fprintf(&b, "# Centrality Report: %s\n", source)
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", r.RunID)
	}
	fmt.Fprintf(&b, "Radius: %.3f km (%s), metric: %s\n\n", r.Params.RadiusKM, r.Params.Policy, r.Params.Metric)

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Listings: %d\n", len(r.Listings))
	if r.Graph != nil {
		fmt.Fprintf(&b, "- Nodes: %d\n", r.Graph.NodeCount())
		fmt.Fprintf(&b, "- Edges: %d\n", r.Graph.EdgeCount())
	}
	fmt.Fprintf(&b, "- Scored: %d\n\n", len(r.Scores))

	fmt.Fprintf(&b, "## Top %d\n", k)
	top := r.Top(k)
	if len(top) == 0 {
		b.WriteString("No nodes scored.\n")
	}
	for i, sc := range top {
		fmt.Fprintf(&b, "%d. node %d: %.6f\n", i+1, sc.Node, sc.Value)
	}
	b.WriteString("\n")

	b.WriteString("## Prediction\n")
	if p, ok := r.FirstPrediction(); ok {
		fmt.Fprintf(&b, "- First listing: %.4f\n\n", p)
	} else {
		b.WriteString("- No listings.\n\n")
	}

	b.WriteString("## Timings\n")
	fmt.Fprintf(&b, "- ingest: %s\n", r.Timings.Ingest)
	fmt.Fprintf(&b, "- build: %s\n", r.Timings.Build)
	fmt.Fprintf(&b, "- analyze: %s\n", r.Timings.Analyze)
	fmt.Fprintf(&b, "- predict: %s\n", r.Timings.Predict)
	fmt.Fprintf(&b, "- total: %s\n", r.Timings.Total)

	return b.String()
}

// LogSummary writes the run summary to the global logger.
func LogSummary(r *Result, k int) {
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.Int("listings", len(r.Listings)),
		zap.Int("scored", len(r.Scores)),
		zap.Duration("total", r.Timings.Total),
	}
	if r.Graph != nil {
		fields = append(fields, zap.Int("nodes", r.Graph.NodeCount()), zap.Int("edges", r.Graph.EdgeCount()))
	}
	if p, ok := r.FirstPrediction(); ok {
		fields = append(fields, zap.Float64("first_prediction", p))
	}
	zap.L().Info("pipeline: analysis complete", fields...)

	for i, sc := range r.Top(k) {
		zap.L().Info("pipeline: central node",
			zap.Int("rank", i+1),
			zap.Int("node", sc.Node),
			zap.Float64("score", sc.Value),
		)
	}
}
