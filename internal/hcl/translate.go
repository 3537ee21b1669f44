// This file translates the decoded HCL blocks into the format-agnostic
// configuration model.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/optree/internal/config"
	"github.com/vk/optree/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// merge adds the blocks of one file to the model.
func (l *Loader) merge(ctx context.Context, model *config.Model, root *fileRoot, evalCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)

	for _, s := range root.Servers {
		logger.Debug("Translating server block.", "alias", s.Alias)
		model.Servers = append(model.Servers, &config.Server{Alias: s.Alias, Rate: s.Rate, Latency: s.Latency})
	}
	for _, f := range root.Flows {
		logger.Debug("Translating flow block.", "alias", f.Alias, "path", f.Path)
		model.Flows = append(model.Flows, &config.Flow{
			Alias: f.Alias,
			Rate:  f.Rate,
			Burst: f.Burst,
			Path:  append([]string(nil), f.Path...),
		})
	}
	for _, n := range root.Nestings {
		nesting, err := translateNesting(n)
		if err != nil {
			return err
		}
		if err := model.AddNesting(nesting); err != nil {
			return err
		}
		logger.Debug("Translated nesting block.", "flow", nesting.Flow)
	}

	switch len(root.Analysis) {
	case 0:
	case 1:
		if model.Analysis != nil {
			return fmt.Errorf("analysis block defined more than once")
		}
		a, err := translateAnalysis(root.Analysis[0], evalCtx)
		if err != nil {
			return err
		}
		model.Analysis = a
	default:
		return fmt.Errorf("analysis block defined %d times", len(root.Analysis))
	}
	return nil
}

func translateNesting(n *nestingBlock) (*config.Nesting, error) {
	if (n.Flow == "") == (len(n.Servers) == 0) {
		return nil, fmt.Errorf("nesting node must set exactly one of `flow` and `servers`")
	}
	out := &config.Nesting{Flow: n.Flow, Servers: append([]string(nil), n.Servers...)}
	if len(n.Servers) > 0 && len(n.Children) > 0 {
		return nil, fmt.Errorf("nesting node over servers %v cannot have nested blocks", n.Servers)
	}
	for _, c := range n.Children {
		child, err := translateNesting(c)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

func translateAnalysis(a *analysisBlock, evalCtx *hcl.EvalContext) (*config.Analysis, error) {
	out := &config.Analysis{
		MaxEvals: a.MaxEvals,
		XTolRel:  a.XTolRel,
		Initial:  a.Initial,
	}
	if a.Plugin != nil {
		out.Plugin = *a.Plugin
	}
	if a.Flow != nil {
		out.FlowOfInterest = *a.Flow
	}

	algorithm, err := evalAlgorithm(a.Algorithm, evalCtx)
	if err != nil {
		return nil, err
	}
	out.Algorithm = algorithm
	return out, nil
}

// evalAlgorithm reads `algorithm` as a string, converting numeric codes.
func evalAlgorithm(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	if expr == nil {
		return "", nil
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("analysis algorithm: %w", diags)
	}
	if v.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", fmt.Errorf("analysis algorithm must be a name or a numeric code: %w", err)
	}
	if !s.IsKnown() || s.IsNull() {
		return "", fmt.Errorf("analysis algorithm must be known")
	}
	return s.AsString(), nil
}
