package app

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/vk/optree/internal/analysis"
)

// flowReport is the printable outcome of one flow of interest.
type flowReport struct {
	Flow        string             `json:"flow"`
	Plugin      string             `json:"plugin"`
	Bound       float64            `json:"delay_bound"`
	Objective   *float64           `json:"objective"`
	Status      string             `json:"status"`
	Algorithm   string             `json:"algorithm,omitempty"`
	Evaluations int                `json:"evaluations"`
	Params      map[string]float64 `json:"parameters"`
	Formula     string             `json:"formula"`
	Constraints []string           `json:"ignored_constraints,omitempty"`
	Convex      *bool              `json:"convex,omitempty"`
}

func newFlowReport(res *analysis.Result) flowReport {
	r := flowReport{
		Flow:        res.Flow,
		Plugin:      res.Plugin,
		Bound:       res.Bound,
		Status:      res.Status.String(),
		Evaluations: res.Evaluations,
		Params:      res.ParamsByAlias(),
		Formula:     res.Formula,
	}
	if res.Algorithm.Valid() {
		r.Algorithm = res.Algorithm.String()
	}
	// JSON has no infinities.
	if !math.IsInf(res.Objective, 0) && !math.IsNaN(res.Objective) {
		obj := res.Objective
		r.Objective = &obj
	}
	for _, c := range res.IgnoredConstraints {
		r.Constraints = append(r.Constraints, c.String())
	}
	return r
}

func writeReport(w io.Writer, format string, reports []flowReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "Flow %s\t(%s)\n", r.Flow, r.Plugin)
		fmt.Fprintf(tw, "  delay bound:\t%g\n", r.Bound)
		status := r.Status
		if r.Algorithm != "" {
			status = fmt.Sprintf("%s (%s, %d evaluations)", r.Status, r.Algorithm, r.Evaluations)
		}
		fmt.Fprintf(tw, "  status:\t%s\n", status)
		if len(r.Params) > 0 {
			fmt.Fprintf(tw, "  parameters:\t%s\n", formatParams(r.Params))
		}
		fmt.Fprintf(tw, "  delay:\t%s\n", r.Formula)
		for _, c := range r.Constraints {
			fmt.Fprintf(tw, "  ignored constraint:\t%s\n", c)
		}
		if r.Convex != nil {
			fmt.Fprintf(tw, "  convex:\t%t\n", *r.Convex)
		}
	}
	return tw.Flush()
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, ", ")
}
