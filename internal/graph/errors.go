package graph

import (
	"strings"

	"github.com/google/uuid"
)

// ConfigurationCycleError reports a dependency cycle between project
// configurations. Path holds the full cycle: it starts and ends with the
// same configuration.
type ConfigurationCycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *ConfigurationCycleError) Error() string {
	return "project dependency cycle detected: " + strings.Join(e.Path, " -> ")
}

// UnresolvedSolutionDependencyError reports a solution-declared dependency on
// a project id that the solution does not contain.
type UnresolvedSolutionDependencyError struct {
	SolutionPath string
	From         uuid.UUID
	To           uuid.UUID
}

// Error implements the error interface.
func (e *UnresolvedSolutionDependencyError) Error() string {
	return "solution " + e.SolutionPath + ": project " + e.From.String() + " declares a dependency on unknown project id " + e.To.String()
}
