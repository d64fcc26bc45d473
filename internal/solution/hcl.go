package solution

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/graphplan/internal/ctxlog"
)

// ParseError reports a failure to parse or validate a solution file.
type ParseError struct {
	SolutionPath string
	Err          error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return "parsing solution " + e.SolutionPath + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// fileRoot decodes the single top-level block of a solution file.
type fileRoot struct {
	Solution *solutionBlock `hcl:"solution,block"`
}

type solutionBlock struct {
	Configurations []*configurationBlock `hcl:"configuration,block"`
	Projects       []*projectBlock       `hcl:"project,block"`
}

type configurationBlock struct {
	Name     string `hcl:"name"`
	Platform string `hcl:"platform,optional"`
}

type projectBlock struct {
	Name           string                       `hcl:"name,label"`
	ID             string                       `hcl:"id"`
	Path           string                       `hcl:"path"`
	DependsOn      []string                     `hcl:"depends_on,optional"`
	Configurations []*projectConfigurationBlock `hcl:"configuration,block"`
}

type projectConfigurationBlock struct {
	Key           string `hcl:"key,label"`
	Configuration string `hcl:"configuration"`
	Platform      string `hcl:"platform,optional"`
}

// HCLParser is the concrete Parser for *.sln.hcl solution files.
type HCLParser struct{}

// NewHCLParser creates a solution file parser.
func NewHCLParser() *HCLParser {
	return &HCLParser{}
}

// Parse implements the Parser interface.
func (p *HCLParser) Parse(ctx context.Context, solutionPath string) (*Solution, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing solution file.", "path", solutionPath)

	abs, err := filepath.Abs(solutionPath)
	if err != nil {
		return nil, &ParseError{SolutionPath: solutionPath, Err: err}
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, &ParseError{SolutionPath: abs, Err: fmt.Errorf("%s", diags.Error())}
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, &ParseError{SolutionPath: abs, Err: fmt.Errorf("%s", diags.Error())}
	}
	if root.Solution == nil {
		return nil, &ParseError{SolutionPath: abs, Err: fmt.Errorf("file has no solution block")}
	}

	configurations := make([]Configuration, 0, len(root.Solution.Configurations))
	for _, block := range root.Solution.Configurations {
		configurations = append(configurations, Configuration{
			Name:     block.Name,
			Platform: block.Platform,
		})
	}

	baseDir := filepath.Dir(abs)
	projects := make([]Project, 0, len(root.Solution.Projects))
	for _, block := range root.Solution.Projects {
		project, err := p.translateProject(block, baseDir)
		if err != nil {
			return nil, &ParseError{SolutionPath: abs, Err: err}
		}
		projects = append(projects, project)
	}
	sln, err := New(abs, configurations, projects)
	if err != nil {
		return nil, &ParseError{SolutionPath: abs, Err: err}
	}

	logger.Debug("Solution parsed.", "path", abs, "project_count", len(sln.Projects), "configuration_count", len(sln.Configurations))
	return sln, nil
}

func (p *HCLParser) translateProject(block *projectBlock, baseDir string) (Project, error) {
	id, err := uuid.Parse(block.ID)
	if err != nil {
		return Project{}, fmt.Errorf("project %q: invalid id %q: %w", block.Name, block.ID, err)
	}

	fullPath := block.Path
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(baseDir, fullPath)
	}

	project := Project{
		ID:               id,
		Name:             block.Name,
		FullPath:         filepath.Clean(fullPath),
		ConfigurationMap: make(map[string]ProjectConfiguration, len(block.Configurations)),
	}
	for _, dep := range block.DependsOn {
		depID, err := uuid.Parse(dep)
		if err != nil {
			return Project{}, fmt.Errorf("project %q: invalid depends_on id %q: %w", block.Name, dep, err)
		}
		project.DependsOn = append(project.DependsOn, depID)
	}
	for _, cfg := range block.Configurations {
		key := strings.ToLower(cfg.Key)
		if _, dup := project.ConfigurationMap[key]; dup {
			return Project{}, fmt.Errorf("project %q: duplicate configuration mapping %q", block.Name, cfg.Key)
		}
		project.ConfigurationMap[key] = ProjectConfiguration{
			Configuration: cfg.Configuration,
			Platform:      cfg.Platform,
		}
	}
	return project, nil
}

// MappingFor returns the project-level configuration mapped from the given
// solution configuration, if the project participates in it.
func (p *Project) MappingFor(solutionConfig Configuration) (ProjectConfiguration, bool) {
	cfg, ok := p.ConfigurationMap[strings.ToLower(solutionConfig.Key())]
	return cfg, ok
}
