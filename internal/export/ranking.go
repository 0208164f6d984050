// Package export writes analysis results: rankings as JSON or YAML, the
// proximity graph as GeoJSON, and scored nodes as a point shapefile.
package export

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/geocentral/internal/centrality"
	"github.com/sells-group/geocentral/internal/model"
)

// Format is a ranking output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// Report is the document written for a completed analysis.
type Report struct {
	RunID  string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Params model.RunParams    `json:"params" yaml:"params"`
	Top    []centrality.Score `json:"top" yaml:"top"`
	Result *model.RunResult   `json:"result" yaml:"result"`
}

// NewReport builds a Report whose Top holds the k leading scores of result.
func NewReport(runID string, params model.RunParams, result *model.RunResult, k int) Report {
	r := Report{RunID: runID, Params: params, Result: result, Top: []centrality.Score{}}
	if result != nil {
		r.Top = centrality.Top(result.Scores, k)
	}
	return r
}

// WriteRanking encodes r to w.
func WriteRanking(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml encoder")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "export: encode json")
	}
}
