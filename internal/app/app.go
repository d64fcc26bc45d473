// Package app wires the evaluator, solution parser, and graph builder into a
// runnable planning application with its own isolated logger.
package app

import (
	"io"
	"log/slog"

	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/solution"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	evaluator evaluate.Evaluator
	parser    solution.Parser
}

// NewApp is the constructor for the main application. Plan output goes to
// outW, logs to errW. The HCL evaluator and solution parser may be replaced
// through the option funcs, chiefly by tests.
func NewApp(outW, errW io.Writer, cfg *Config, opts ...Option) *App {
	a := &App{
		outW:      outW,
		logger:    newLogger(cfg.LogLevel, cfg.LogFormat, errW),
		evaluator: evaluate.NewHCLEvaluator(),
		parser:    solution.NewHCLParser(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger.Debug("Logger configured successfully.")
	return a
}

// Option customizes an App's collaborators.
type Option func(*App)

// WithEvaluator replaces the project evaluator.
func WithEvaluator(e evaluate.Evaluator) Option {
	return func(a *App) { a.evaluator = e }
}

// WithSolutionParser replaces the solution parser.
func WithSolutionParser(p solution.Parser) Option {
	return func(a *App) { a.parser = p }
}
