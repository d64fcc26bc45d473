// Package solution models solution files: named collections of projects with
// per-solution-configuration build mappings and declared build-order
// dependencies between projects.
package solution

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// solutionSuffix marks a path as a solution file rather than a project manifest.
const solutionSuffix = ".sln.hcl"

// IsSolutionPath reports whether the path names a solution file.
func IsSolutionPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), solutionSuffix)
}

// Parser turns a solution file into its parsed model.
type Parser interface {
	Parse(ctx context.Context, solutionPath string) (*Solution, error)
}

// Solution is the parsed model of one solution file.
type Solution struct {
	// Path is the absolute path of the solution file.
	Path string
	// Configurations lists the solution-level configurations in declaration
	// order; the first one is the default.
	Configurations []Configuration
	// Projects lists the member projects in declaration order.
	Projects []Project

	byID map[uuid.UUID]*Project
}

// Configuration is one solution-level configuration/platform pair.
type Configuration struct {
	Name     string
	Platform string
}

// Key returns the canonical "Name|Platform" form used in project mappings.
func (c Configuration) Key() string {
	return c.Name + "|" + c.Platform
}

// Project is one project entry of a solution.
type Project struct {
	// ID is the project's stable identity within the solution; dependency
	// declarations reference it.
	ID   uuid.UUID
	Name string
	// FullPath is the absolute path of the project manifest.
	FullPath string
	// ConfigurationMap maps a solution configuration key ("Name|Platform")
	// to the project-level configuration to build it with. Projects without
	// a mapping for the selected solution configuration are not built.
	ConfigurationMap map[string]ProjectConfiguration
	// DependsOn lists IDs of projects that must build before this one,
	// independent of any project-level references.
	DependsOn []uuid.UUID
}

// ProjectConfiguration is the project-level configuration selected by one
// solution configuration.
type ProjectConfiguration struct {
	Configuration string
	Platform      string
}

// New assembles a solution model, rejecting duplicate project ids. Dependency
// ids are not resolved here; graph construction validates them when injecting
// solution edges.
func New(path string, configurations []Configuration, projects []Project) (*Solution, error) {
	seen := make(map[uuid.UUID]string, len(projects))
	for _, p := range projects {
		if prior, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("solution %s: projects %q and %q share id %s", path, prior, p.Name, p.ID)
		}
		seen[p.ID] = p.Name
	}
	s := &Solution{Path: path, Configurations: configurations, Projects: projects}
	s.index()
	return s, nil
}

// ProjectByID returns the project with the given ID, or nil.
func (s *Solution) ProjectByID(id uuid.UUID) *Project {
	return s.byID[id]
}

// DefaultConfiguration returns the first declared solution configuration and
// whether one exists.
func (s *Solution) DefaultConfiguration() (Configuration, bool) {
	if len(s.Configurations) == 0 {
		return Configuration{}, false
	}
	return s.Configurations[0], true
}

// ConfigurationByName returns the declared configuration matching the given
// "Name" or "Name|Platform" selector, case-insensitively.
func (s *Solution) ConfigurationByName(selector string) (Configuration, bool) {
	for _, c := range s.Configurations {
		if strings.EqualFold(c.Key(), selector) || strings.EqualFold(c.Name, selector) {
			return c, true
		}
	}
	return Configuration{}, false
}

// index populates the by-ID lookup. Called once at the end of parsing.
func (s *Solution) index() {
	s.byID = make(map[uuid.UUID]*Project, len(s.Projects))
	for i := range s.Projects {
		s.byID[s.Projects[i].ID] = &s.Projects[i]
	}
}
