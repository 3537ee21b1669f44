package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all top-level blocks of a file.
type fileRoot struct {
	Servers  []*serverBlock   `hcl:"server,block"`
	Flows    []*flowBlock     `hcl:"flow,block"`
	Nestings []*nestingBlock  `hcl:"nesting,block"`
	Analysis []*analysisBlock `hcl:"analysis,block"`
}

type serverBlock struct {
	Alias   string  `hcl:"alias,label"`
	Rate    float64 `hcl:"rate"`
	Latency float64 `hcl:"latency,optional"`
}

type flowBlock struct {
	Alias string   `hcl:"alias,label"`
	Rate  float64  `hcl:"rate"`
	Burst float64  `hcl:"burst,optional"`
	Path  []string `hcl:"path"`
}

// nestingBlock is a node of a nesting tree. Children are nested `nest`
// blocks.
type nestingBlock struct {
	Flow     string          `hcl:"flow,optional"`
	Servers  []string        `hcl:"servers,optional"`
	Children []*nestingBlock `hcl:"nest,block"`
}

// analysisBlock holds defaults for the command line. The algorithm is a
// name or a legacy numeric code, so it is decoded late.
type analysisBlock struct {
	Plugin    *string            `hcl:"plugin,optional"`
	Flow      *string            `hcl:"foi,optional"`
	Algorithm hcl.Expression     `hcl:"algorithm,optional"`
	MaxEvals  *int               `hcl:"max_evals,optional"`
	XTolRel   *float64           `hcl:"xtol_rel,optional"`
	Initial   map[string]float64 `hcl:"initial,optional"`
}
