package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every input file found under paths and merges their
	// content into a single format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
