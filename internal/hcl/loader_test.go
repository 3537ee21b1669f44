package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/optree/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const networkHCL = `
server "s1" {
  rate    = 10 * mbit
  latency = 2 * ms
}

server "s2" {
  rate    = max(20, 5) * mbit
  latency = 200 * us
}

flow "foi" {
  rate  = 1 * mbit
  burst = 20 * kbit
  path  = ["s1", "s2"]
}

flow "x1" {
  rate = 2 * mbit
  path = ["s1"]
}

nesting {
  flow = "foi"
  nest {
    flow = "x1"
    nest { servers = ["s1"] }
  }
  nest { servers = ["s2"] }
}
`

func TestLoadNetwork(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "network.hcl", networkHCL)
	writeFile(t, dir, "nested/analysis.hcl", `
analysis {
  plugin    = "fifo"
  foi       = "foi"
  algorithm = 40
  max_evals = 500
  xtol_rel  = 1e-6
  initial   = { x1 = 0.001 }
}
`)
	writeFile(t, dir, "README.md", "not a network file")

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	maxEvals, xtol := 500, 1e-6
	want := &config.Model{
		Servers: []*config.Server{
			{Alias: "s1", Rate: 1e7, Latency: 2e-3},
			{Alias: "s2", Rate: 2e7, Latency: 2e-4},
		},
		Flows: []*config.Flow{
			{Alias: "foi", Rate: 1e6, Burst: 2e4, Path: []string{"s1", "s2"}},
			{Alias: "x1", Rate: 2e6, Path: []string{"s1"}},
		},
		Nestings: map[string]*config.Nesting{
			"foi": {
				Flow: "foi",
				Children: []*config.Nesting{
					{Flow: "x1", Children: []*config.Nesting{{Servers: []string{"s1"}}}},
					{Servers: []string{"s2"}},
				},
			},
		},
		Analysis: &config.Analysis{
			Plugin:         "fifo",
			FlowOfInterest: "foi",
			Algorithm:      "40",
			MaxEvals:       &maxEvals,
			XTolRel:        &xtol,
			Initial:        map[string]float64{"x1": 0.001},
		},
	}
	assert.Empty(t, cmp.Diff(want, model, cmpopts.EquateApprox(1e-9, 0), cmpopts.EquateEmpty()))
	assert.Equal(t, []string{"foi"}, model.FlowsOfInterest())
}

func TestLoadSingleFileAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "network.hcl", networkHCL)

	model, err := NewLoader().Load(context.Background(), file, dir)
	require.NoError(t, err)
	assert.Len(t, model.Servers, 2)
	assert.Nil(t, model.Analysis)
}

func TestLoadAlgorithmByName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `analysis { algorithm = "nelder-mead" }`)

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, model.Analysis)
	assert.Equal(t, "nelder-mead", model.Analysis.Algorithm)
	assert.Nil(t, model.Analysis.MaxEvals)
	assert.Empty(t, model.Analysis.Plugin)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax",
			files:   map[string]string{"a.hcl": `server "s1" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name: "unknown attribute",
			files: map[string]string{"a.hcl": `
server "s1" {
  rate  = 1
  speed = 2
}`},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "missing rate",
			files:   map[string]string{"a.hcl": `flow "f" { path = ["s1"] }`},
			wantErr: "failed to decode HCL file",
		},
		{
			name: "nesting with flow and servers",
			files: map[string]string{"a.hcl": `
nesting {
  flow    = "f"
  servers = ["s1"]
}`},
			wantErr: "exactly one of `flow` and `servers`",
		},
		{
			name: "nested blocks below servers",
			files: map[string]string{"a.hcl": `
nesting {
  flow = "f"
  nest {
    servers = ["s1"]
    nest { servers = ["s2"] }
  }
}`},
			wantErr: "cannot have nested blocks",
		},
		{
			name: "duplicate nesting",
			files: map[string]string{
				"a.hcl": `nesting { flow = "f" }`,
				"b.hcl": `nesting { flow = "f" }`,
			},
			wantErr: `nesting for flow "f" defined more than once`,
		},
		{
			name: "analysis in two files",
			files: map[string]string{
				"a.hcl": `analysis { plugin = "fifo" }`,
				"b.hcl": `analysis { plugin = "arbitrary" }`,
			},
			wantErr: "analysis block defined more than once",
		},
		{
			name:    "algorithm of the wrong type",
			files:   map[string]string{"a.hcl": `analysis { algorithm = ["bfgs"] }`},
			wantErr: "analysis algorithm must be a name or a numeric code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("no files", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no .hcl files found")
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error accessing path")
	})
}
