package config

import "context"

// Loader is the interface for a format-specific front end. It reads a
// program file and a topology file and translates both into the
// format-agnostic model.
type Loader interface {
	Load(ctx context.Context, programPath, topologyPath string) (*Model, error)
}
