package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/optree/internal/analysis"
	"github.com/vk/optree/internal/hcl"
	"github.com/vk/optree/internal/network"
	"github.com/vk/optree/internal/optree"
	"github.com/vk/optree/internal/plugin"
	"github.com/vk/optree/internal/registry"
)

const twoHopHCL = `
server "s1" {
  rate    = 10
  latency = 0.1
}

server "s2" {
  rate    = 20
  latency = 0.2
}

flow "foi" {
  rate  = 1
  burst = 2
  path  = ["s1", "s2"]
}

flow "x1" {
  rate  = 2
  burst = 1
  path  = ["s1"]
}

flow "x2" {
  rate  = 3
  burst = 1
  path  = ["s2"]
}

nesting {
  flow = "foi"
  nest {
    flow = "x1"
    nest { servers = ["s1"] }
  }
  nest {
    flow = "x2"
    nest { servers = ["s2"] }
  }
}
`

// x1Nesting adds a second flow of interest.
const x1Nesting = `
nesting {
  flow = "x1"
  nest { servers = ["s1"] }
}
`

const (
	twoHopArbitrary   = 0.5 + 5.0/17
	twoHopFIFOAtZero  = 0.7
	twoHopFIFOOptimum = 0.65 + 0.4/17
)

func decodeReports(t *testing.T, out *SafeBuffer) []flowReport {
	t.Helper()
	var reports []flowReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &reports), "report: %s", out.String())
	return reports
}

func TestRun_ArbitraryJSON(t *testing.T) {
	a, out, logs := SetupAppTest(t, &Config{Plugin: "arbitrary", Output: "json"}, twoHopHCL)

	require.NoError(t, a.Run(context.Background()))

	reports := decodeReports(t, out)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, "foi", r.Flow)
	assert.Equal(t, "arbitrary", r.Plugin)
	assert.InDelta(t, twoHopArbitrary, r.Bound, 1e-12)
	require.NotNil(t, r.Objective)
	assert.InDelta(t, twoHopArbitrary, *r.Objective, 1e-12)
	assert.Equal(t, "success", r.Status)
	assert.Empty(t, r.Params)
	assert.Nil(t, r.Convex)

	assert.Contains(t, logs.String(), "Starting delay analysis")
	assert.Contains(t, logs.String(), "Delay analysis finished")
	count, err := testutil.GatherAndCount(a.Metrics().Registry(), "optree_analyses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_FIFOMinimizesBelowTheStartingPoint(t *testing.T) {
	a, out, _ := SetupAppTest(t, &Config{Output: "json"}, twoHopHCL)

	require.NoError(t, a.Run(context.Background()))

	reports := decodeReports(t, out)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, DefaultPlugin, r.Plugin)
	assert.Contains(t, []string{"bfgs", "nelder-mead"}, r.Algorithm, "meta reports the stage that won")
	assert.LessOrEqual(t, r.Bound, twoHopFIFOAtZero+1e-9)
	assert.GreaterOrEqual(t, r.Bound, twoHopFIFOOptimum-1e-9)
	assert.Contains(t, r.Params, "x1", "FIFO parameters are reported by cross-flow alias")
	assert.Contains(t, r.Params, "x2")
	assert.Greater(t, r.Evaluations, 0)
}

func TestRun_TextReport(t *testing.T) {
	a, out, _ := SetupAppTest(t, &Config{Plugin: "arbitrary", Convexity: true}, twoHopHCL)

	require.NoError(t, a.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Flow foi")
	assert.Contains(t, text, "(arbitrary)")
	assert.Contains(t, text, "delay bound:")
	assert.Contains(t, text, "status:")
	assert.Contains(t, text, "convex:")
	assert.Contains(t, text, "true")
	assert.NotContains(t, text, "parameters:", "arbitrary multiplexing has no free parameters")
}

func TestRun_NetworkFileDefaults(t *testing.T) {
	src := twoHopHCL + `
analysis {
  plugin    = "arbitrary"
  algorithm = "nelder-mead"
}
`
	t.Run("file values apply", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, &Config{Output: "json"}, src)
		require.NoError(t, a.Run(context.Background()))
		assert.Equal(t, "arbitrary", decodeReports(t, out)[0].Plugin)
	})

	t.Run("command line wins", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, &Config{Plugin: "fifo", Algorithm: "bfgs", Output: "json"}, src)
		require.NoError(t, a.Run(context.Background()))
		r := decodeReports(t, out)[0]
		assert.Equal(t, "fifo", r.Plugin)
		assert.Equal(t, "bfgs", r.Algorithm)
	})
}

func TestRun_FlowSelection(t *testing.T) {
	src := twoHopHCL + x1Nesting

	t.Run("every nesting tree by default", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, &Config{Plugin: "arbitrary", Output: "json"}, src)
		require.NoError(t, a.Run(context.Background()))
		reports := decodeReports(t, out)
		require.Len(t, reports, 2)
		assert.Equal(t, "foi", reports[0].Flow)
		assert.Equal(t, "x1", reports[1].Flow)
	})

	t.Run("one flow of interest", func(t *testing.T) {
		a, out, _ := SetupAppTest(t, &Config{Plugin: "arbitrary", FlowOfInterest: "x1", Output: "json"}, src)
		require.NoError(t, a.Run(context.Background()))
		reports := decodeReports(t, out)
		require.Len(t, reports, 1)
		assert.Equal(t, "x1", reports[0].Flow)
		// x1 alone on s1: 1/10 + 0.1.
		assert.InDelta(t, 0.2, reports[0].Bound, 1e-12)
	})

	t.Run("initial values are shared between flows", func(t *testing.T) {
		cfg := &Config{Output: "json", Initial: map[string]float64{"x2": 0.1}}
		a, out, _ := SetupAppTest(t, cfg, src)
		require.NoError(t, a.Run(context.Background()))
		assert.Len(t, decodeReports(t, out), 2)
	})
}

func TestRun_InitialValues(t *testing.T) {
	a, out, _ := SetupAppTest(t, &Config{Algorithm: "nelder-mead", Output: "json", Initial: map[string]float64{"x1": 0.2, "s_x2": 0.1}}, twoHopHCL)
	require.NoError(t, a.Run(context.Background()))
	r := decodeReports(t, out)[0]
	assert.LessOrEqual(t, r.Bound, 0.75+1e-9, "never worse than the starting point")
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		config  Config
		network string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown plugin",
			config:  Config{Plugin: "wfq"},
			network: twoHopHCL,
			wantErr: registry.ErrUnknownPlugin,
		},
		{
			name:    "flow of interest without nesting tree",
			config:  Config{FlowOfInterest: "x2"},
			network: twoHopHCL,
			wantMsg: `flow of interest "x2" has no nesting tree`,
		},
		{
			name:    "no nesting tree at all",
			network: strings.Split(twoHopHCL, "nesting {")[0],
			wantMsg: "no flow of interest",
		},
		{
			name:    "initial value for an unknown parameter",
			config:  Config{Initial: map[string]float64{"x9": 1}},
			network: twoHopHCL,
			wantErr: analysis.ErrUnknownParameter,
		},
		{
			name: "nesting child off its parent's path",
			network: strings.Split(twoHopHCL, "nesting {")[0] + `
nesting {
  flow = "foi"
  nest {
    flow = "x1"
    nest { servers = ["s2"] }
  }
}
`,
			wantErr: network.ErrBadNesting,
			wantMsg: "flow \"foi\"",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a, _, _ := SetupAppTest(t, &tc.config, tc.network)
			err := a.Run(context.Background())
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				assert.Contains(t, err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	a, out, _ := SetupAppTest(t, &Config{}, twoHopHCL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestNewApp_PanicsOnInvalidNetwork(t *testing.T) {
	testCases := map[string]string{
		"syntax error":      `server "s1" {`,
		"unknown server":    `flow "f" { path = ["nope"] }`,
		"overloaded server": "server \"s\" {\n  rate    = 1\n  latency = 0\n}\nflow \"f\" {\n  rate = 2\n  path = [\"s\"]\n}\n",
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, func() {
				SetupAppTest(t, &Config{}, src)
			})
		})
	}
}

func TestNewApp_RegistersModules(t *testing.T) {
	a, _, logs := SetupAppTest(t, &Config{}, twoHopHCL)
	assert.Equal(t, []string{"arbitrary", "fifo", "synthetic-arbitrary", "synthetic-fifo"}, a.Registry().Names())
	assert.Contains(t, logs.String(), "Registry validation passed.")
}

func TestNewApp_RejectsABrokenModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.hcl")
	require.NoError(t, os.WriteFile(path, []byte(twoHopHCL), 0o600))
	cfg := &Config{NetworkPath: path}
	assert.Panics(t, func() {
		NewApp(io.Discard, io.Discard, cfg, hcl.NewLoader(), emptyModule{})
	})
}

type emptyModule struct{}

func (emptyModule) Register(*registry.Registry) {}

func TestServeMux(t *testing.T) {
	a, _, _ := SetupAppTest(t, &Config{Plugin: "arbitrary", Output: "json"}, twoHopHCL)
	require.NoError(t, a.Run(context.Background()))
	srv := httptest.NewServer(a.newServeMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `optree_analyses_total{plugin="arbitrary",status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

// brokenCurvesModule registers a plugin that cannot produce arrival curves.
type brokenCurvesModule struct{}

func (brokenCurvesModule) Register(r *registry.Registry) {
	r.RegisterPlugin("broken-curves", func() optree.Plugin {
		return &brokenCurvesPlugin{Plugin: plugin.New("broken-curves", plugin.Arbitrary, plugin.NetworkCurves)}
	})
}

type brokenCurvesPlugin struct {
	*plugin.Plugin
}

func (*brokenCurvesPlugin) FlowTerm(*network.Flow) optree.Derivation {
	panic("no arrival curve")
}

func TestRun_DerivationPanicNamesTheFlow(t *testing.T) {
	a, out, _ := SetupAppTest(t, &Config{Plugin: "broken-curves"}, twoHopHCL, brokenCurvesModule{})

	var err error
	require.NotPanics(t, func() { err = a.Run(context.Background()) })
	require.ErrorIs(t, err, ErrDerivation)
	assert.Contains(t, err.Error(), `flow "foi"`)
	assert.Contains(t, err.Error(), "no arrival curve")
	assert.Empty(t, out.String())
}
