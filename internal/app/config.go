package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// EntryPath is a project manifest, a solution file, or a directory to
	// discover one in.
	EntryPath string

	// GlobalProperties are applied to every entry point.
	GlobalProperties map[string]string

	// SolutionConfiguration selects the solution configuration to plan;
	// empty selects the first declared one.
	SolutionConfiguration string

	// Parallelism is the evaluation worker count; 0 evaluates sequentially.
	Parallelism int

	// OutputCachePath, when set, receives a result-cache skeleton for the
	// planned configurations.
	OutputCachePath string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.EntryPath == "" {
		return nil, errors.New("EntryPath is a required configuration field and cannot be empty")
	}
	if cfg.Parallelism < 0 {
		return nil, errors.New("Parallelism cannot be negative")
	}
	return &cfg, nil
}
