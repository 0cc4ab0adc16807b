package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	ProgramPath  string // hcl program file
	TopologyPath string // hcl bus/instrument map

	// Plan stops after compilation and prints the schedule and assembly
	// instead of dispatching to instruments.
	Plan bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProgramPath == "" {
		return nil, errors.New("ProgramPath is a required configuration field and cannot be empty")
	}
	if cfg.TopologyPath == "" {
		return nil, errors.New("TopologyPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
