package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocentral/internal/config"
	"github.com/sells-group/geocentral/internal/export"
	"github.com/sells-group/geocentral/internal/pipeline"
	"github.com/sells-group/geocentral/internal/spatial"
	"github.com/sells-group/geocentral/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank listings in a CSV or XLSX file by closeness centrality",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyAnalyzeFlags(cmd, cfg)
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		opts, err := pipelineOptions(cfg)
		if err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		persist, _ := cmd.Flags().GetBool("persist")

		var st store.Store
		if persist {
			st, err = initStore(ctx)
			if err != nil {
				zap.L().Warn("analyze: store unavailable, results will not be persisted", zap.Error(err))
			} else {
				defer st.Close() //nolint:errcheck
			}
		}

		res, err := pipeline.New(opts, st, pipeline.NewLogObserver(nil)).RunFile(ctx, input)
		if err != nil {
			return err
		}
		pipeline.LogSummary(res, cfg.Analysis.Top)

		return writeArtifacts(cmd, res, cfg.Analysis.Top)
	},
}

// applyAnalyzeFlags copies explicitly set flags over the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("radius") {
		c.Graph.RadiusKM, _ = flags.GetFloat64("radius")
	}
	if flags.Changed("exclusive") {
		if exclusive, _ := flags.GetBool("exclusive"); exclusive {
			c.Graph.Policy = string(spatial.PolicyExclusive)
		} else {
			c.Graph.Policy = string(spatial.PolicyInclusive)
		}
	}
	if flags.Changed("sample") {
		c.Analysis.SampleSize, _ = flags.GetInt("sample")
	}
	if flags.Changed("top") {
		c.Analysis.Top, _ = flags.GetInt("top")
	}
	if flags.Changed("workers") {
		w, _ := flags.GetInt("workers")
		c.Graph.Workers = w
		c.Analysis.Workers = w
	}
	if flags.Changed("metric") {
		c.Analysis.Metric, _ = flags.GetString("metric")
	}
}

// pipelineOptions maps config onto pipeline options.
func pipelineOptions(c *config.Config) (pipeline.Options, error) {
	policy, err := spatial.ParsePolicy(c.Graph.Policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	metric, err := pipeline.ParseMetric(c.Analysis.Metric)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		RadiusKM:      c.Graph.RadiusKM,
		Policy:        policy,
		SampleSize:    c.Analysis.SampleSize,
		Workers:       max(c.Graph.Workers, c.Analysis.Workers),
		Metric:        metric,
		PredictFactor: c.Predict.Factor,
	}, nil
}

// writeArtifacts writes the ranking (stdout or --output), the optional
// GeoJSON graph, the optional shapefile, and the text report to stderr.
func writeArtifacts(cmd *cobra.Command, res *pipeline.Result, top int) error {
	flags := cmd.Flags()
	formatName, _ := flags.GetString("format")
	output, _ := flags.GetString("output")
	geojsonPath, _ := flags.GetString("geojson")
	shapefilePath, _ := flags.GetString("shapefile")
	quiet, _ := flags.GetBool("quiet")

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	report := export.NewReport(res.RunID, res.Params, res.RunResult(), top)
	if err := writeTo(output, cmd.OutOrStdout(), func(w io.Writer) error {
		return export.WriteRanking(w, format, report)
	}); err != nil {
		return eris.Wrap(err, "analyze: write ranking")
	}

	if geojsonPath != "" {
		if err := writeTo(geojsonPath, nil, func(w io.Writer) error {
			return export.WriteGeoJSON(w, res.Graph, res.Scores)
		}); err != nil {
			return eris.Wrap(err, "analyze: write geojson")
		}
		zap.L().Info("analyze: wrote geojson", zap.String("path", geojsonPath))
	}

	if shapefilePath != "" {
		if err := export.WriteShapefile(shapefilePath, res.Graph, res.Scores); err != nil {
			return eris.Wrap(err, "analyze: write shapefile")
		}
		zap.L().Info("analyze: wrote shapefile", zap.String("path", shapefilePath))
	}

	if !quiet {
		fmt.Fprint(cmd.ErrOrStderr(), pipeline.FormatReport(res, top))
	}
	return nil
}

// writeTo runs fn against the file at path, or against fallback when path is
// empty.
func writeTo(path string, fallback io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(fallback)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func addAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "", "listings file (.csv or .xlsx)")
	f.Float64("radius", spatial.DefaultRadiusKM, "edge radius in km (default from config)")
	f.Bool("exclusive", false, "exclude pairs at exactly the radius")
	f.Int("sample", 50, "number of nodes to score, in index order (default from config)")
	f.Int("top", 5, "number of central listings to report (default from config)")
	f.Int("workers", 1, "parallel workers for graph build and scoring (default from config)")
	f.String("metric", "closeness", "centrality metric: closeness or degree")
	f.StringP("output", "o", "", "ranking output file (default stdout)")
	f.String("format", "json", "ranking format: json or yaml")
	f.String("geojson", "", "write the proximity graph as GeoJSON to this path")
	f.String("shapefile", "", "write scored nodes as a point shapefile to this path")
	f.Bool("persist", false, "record the run in the configured store")
	f.BoolP("quiet", "q", false, "suppress the text report on stderr")
	_ = cmd.MarkFlagRequired("input")
}

func init() {
	addAnalyzeFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
