package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/vk/graphplan/internal/fsutil"
	"github.com/vk/graphplan/internal/graph"
	"github.com/vk/graphplan/internal/resultcache"
)

// Run builds the project graph for the configured entry point and prints the
// dependency-first build plan.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	entryPaths, err := a.resolveEntryPaths(cfg.EntryPath)
	if err != nil {
		return err
	}

	global := configuration.NewGlobalProperties(cfg.GlobalProperties)
	entryPoints := make([]graph.EntryPoint, 0, len(entryPaths))
	for _, path := range entryPaths {
		entryPoints = append(entryPoints, graph.EntryPoint{ProjectPath: path, GlobalProperties: global})
	}

	a.logger.Debug("Building project graph.", "entry_points", len(entryPoints), "parallelism", cfg.Parallelism)
	g, err := graph.BuildGraph(ctx, entryPoints, graph.Options{
		Evaluator:             a.evaluator,
		SolutionParser:        a.parser,
		DegreeOfParallelism:   cfg.Parallelism,
		SolutionConfiguration: cfg.SolutionConfiguration,
	})
	if err != nil {
		return fmt.Errorf("failed to build project graph: %w", err)
	}

	a.logger.Info("Project graph built.",
		"node_count", len(g.ProjectNodes()),
		"root_count", len(g.GraphRoots()),
		"entry_point_count", len(g.EntryPointNodes()))

	a.printPlan(g)

	if cfg.OutputCachePath != "" {
		if err := a.writeCacheSkeleton(g, cfg.OutputCachePath); err != nil {
			return err
		}
		a.logger.Info("Result cache skeleton written.", "path", cfg.OutputCachePath)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// resolveEntryPaths maps a directory entry to concrete manifests: a lone
// solution file wins, otherwise every project manifest underneath. File
// entries pass through untouched.
func (a *App) resolveEntryPaths(entryPath string) ([]string, error) {
	info, err := os.Stat(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access entry path %s: %w", entryPath, err)
	}
	if !info.IsDir() {
		return []string{entryPath}, nil
	}

	solutions, err := fsutil.FindSolutionFiles(entryPath)
	if err != nil {
		return nil, err
	}
	switch {
	case len(solutions) == 1:
		a.logger.Debug("Discovered solution file.", "path", solutions[0])
		return solutions, nil
	case len(solutions) > 1:
		return nil, fmt.Errorf("multiple solution files found under %s; name one explicitly", entryPath)
	}

	projects, err := fsutil.FindProjectFiles(entryPath)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("no project or solution files found under %s", entryPath)
	}
	a.logger.Debug("Discovered project manifests.", "count", len(projects))
	return projects, nil
}

// printPlan writes the topological build plan, one configuration per line,
// dependencies first.
func (a *App) printPlan(g *graph.ProjectGraph) {
	nodes := g.ProjectNodesTopologicallySorted()
	fmt.Fprintf(a.outW, "Build plan (%d configurations):\n", len(nodes))
	for i, node := range nodes {
		fmt.Fprintf(a.outW, "%4d. %s\n", i+1, node.Metadata())
	}
}

// writeCacheSkeleton seeds an empty result-cache entry per planned
// configuration so a later isolated build can fill it in.
func (a *App) writeCacheSkeleton(g *graph.ProjectGraph, path string) error {
	cache := resultcache.New()
	for _, node := range g.ProjectNodes() {
		cache.Record(node.Metadata(), nil)
	}
	return cache.Save(path)
}
