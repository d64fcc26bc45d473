package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/vk/graphplan/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// propertyFlags collects repeated -p key=value arguments.
type propertyFlags map[string]string

func (p propertyFlags) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

func (p propertyFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("global property must be key=value, got %q", value)
	}
	p[key] = val
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("graphplan", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
graphplan - static project dependency graph construction and build planning.

Usage:
  graphplan [options] ENTRY_PATH

Arguments:
  ENTRY_PATH
    Path to a project manifest (.hcl), a solution file (.sln.hcl), or a
    directory to discover one in.

Options:
`)
		flagSet.PrintDefaults()
	}

	properties := make(propertyFlags)
	flagSet.Var(properties, "p", "Global property as key=value. Repeatable.")
	parallelismFlag := flagSet.Int("parallelism", 0, "Number of concurrent evaluation workers. 0 evaluates sequentially.")
	solutionConfigFlag := flagSet.String("solution-config", "", "Solution configuration to plan ('Name' or 'Name|Platform').")
	outputCacheFlag := flagSet.String("output-cache", "", "Path to write a result-cache skeleton for the plan.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No entry path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "exactly one ENTRY_PATH is expected"}
	}
	entryPath := flagSet.Arg(0)
	slog.Debug("Entry path determined.", "path", entryPath)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		EntryPath:             entryPath,
		GlobalProperties:      properties,
		SolutionConfiguration: *solutionConfigFlag,
		Parallelism:           *parallelismFlag,
		OutputCachePath:       *outputCacheFlag,
		LogFormat:             logFormat,
		LogLevel:              logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "entry_path", config.EntryPath)
	return config, false, nil
}
