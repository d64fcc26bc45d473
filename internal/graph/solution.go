package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/interpret"
	"github.com/vk/graphplan/internal/solution"
)

// solutionEntryPoints derives one entry configuration per solution project
// mapped into the selected solution configuration. Projects without a mapping
// are not built in that configuration and contribute no entry point. The
// returned map links each participating project id to its entry fingerprint
// for later dependency-edge injection.
func solutionEntryPoints(ctx context.Context, sln *solution.Solution, global configuration.GlobalProperties, selector string) ([]configuration.Metadata, map[uuid.UUID]string, error) {
	logger := ctxlog.FromContext(ctx)

	var (
		cfg      solution.Configuration
		haveCfg  bool
		selected string
	)
	if selector != "" {
		cfg, haveCfg = sln.ConfigurationByName(selector)
		if !haveCfg {
			return nil, nil, fmt.Errorf("solution %s declares no configuration matching %q", sln.Path, selector)
		}
	} else {
		cfg, haveCfg = sln.DefaultConfiguration()
	}
	if haveCfg {
		selected = cfg.Key()
	}
	logger.Debug("Deriving solution entry points.", "solution", sln.Path, "configuration", selected)

	metadatas := make([]configuration.Metadata, 0, len(sln.Projects))
	entryByID := make(map[uuid.UUID]string, len(sln.Projects))
	for _, project := range sln.Projects {
		props := global
		if haveCfg {
			mapping, ok := project.MappingFor(cfg)
			if !ok {
				logger.Debug("Project has no mapping for the selected configuration; skipping.", "project", project.Name, "configuration", selected)
				continue
			}
			props = props.With(interpret.ConfigurationProperty, mapping.Configuration)
			if mapping.Platform != "" {
				props = props.With(interpret.PlatformProperty, mapping.Platform)
			}
		}

		md, err := configuration.NewMetadata(project.FullPath, props)
		if err != nil {
			return nil, nil, err
		}
		metadatas = append(metadatas, md)
		entryByID[project.ID] = md.Fingerprint()
	}
	return metadatas, entryByID, nil
}

// solutionEdges injects the solution's declared build-order dependencies as
// edges between already-discovered nodes after ordinary expansion completes.
type solutionEdges struct {
	solution  *solution.Solution
	entryByID map[uuid.UUID]string
}

// inject adds one solution-only edge per declared dependency between projects
// participating in the built configuration. It never creates nodes and never
// displaces a stronger existing edge. A dependency on a project id the
// solution does not contain is fatal.
func (s *solutionEdges) inject(ctx context.Context, graph *ProjectGraph) error {
	logger := ctxlog.FromContext(ctx)

	for _, project := range s.solution.Projects {
		for _, depID := range project.DependsOn {
			dep := s.solution.ProjectByID(depID)
			if dep == nil {
				return &UnresolvedSolutionDependencyError{
					SolutionPath: s.solution.Path,
					From:         project.ID,
					To:           depID,
				}
			}

			fromKey, fromBuilt := s.entryByID[project.ID]
			toKey, toBuilt := s.entryByID[depID]
			if !fromBuilt || !toBuilt {
				// One endpoint is not built in this configuration.
				continue
			}
			from, to := graph.nodes[fromKey], graph.nodes[toKey]
			if from == nil || to == nil {
				continue
			}

			item := evaluate.NewItem(interpret.ProjectReferenceItem, dep.FullPath, nil)
			graph.edges.add(from, to, item, interpret.KindSolution)
			logger.Debug("Injected solution dependency edge.", "from", project.Name, "to", dep.Name)
		}
	}
	return nil
}
