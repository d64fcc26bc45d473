package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/interpret"
	"github.com/vk/graphplan/internal/solution"
	"github.com/vk/graphplan/internal/workset"
)

// EntryPoint is one requested starting configuration.
type EntryPoint struct {
	ProjectPath      string
	GlobalProperties configuration.GlobalProperties
}

// Options configures graph construction.
type Options struct {
	// Evaluator is the project-evaluation collaborator. Required.
	Evaluator evaluate.Evaluator
	// SolutionParser parses solution entry points. Defaults to the HCL
	// solution parser when nil.
	SolutionParser solution.Parser
	// DegreeOfParallelism is the number of concurrent evaluation workers;
	// 0 evaluates sequentially on the calling goroutine. The resulting graph
	// topology is identical for every setting.
	DegreeOfParallelism int
	// SolutionConfiguration selects the solution configuration to build
	// ("Name" or "Name|Platform"); empty selects the first declared one.
	SolutionConfiguration string
}

// parsedProject is the result of one unit of expansion work: one evaluated
// and interpreted configuration, with its outgoing references discovered.
type parsedProject struct {
	metadata    configuration.Metadata
	project     *evaluate.Project
	projectType interpret.ProjectType
	references  []interpret.Reference
}

// builder orchestrates one graph construction. All state is scoped to a
// single BuildGraph call; independent builds never share anything.
type builder struct {
	opts        Options
	interpreter *interpret.Interpreter
	work        *workset.WorkSet[string, *parsedProject]
}

// BuildGraph expands the transitive closure of the entry points into a frozen
// project graph. A single entry point naming a solution file dispatches to
// BuildGraphFromSolution; a solution file among multiple entry points is an
// error. Construction is all-or-nothing: any evaluation failure, nested
// solution, unresolved solution dependency, or dependency cycle aborts with
// no partial graph.
func BuildGraph(ctx context.Context, entryPoints []EntryPoint, opts Options) (*ProjectGraph, error) {
	if opts.Evaluator == nil {
		return nil, errors.New("graph: Options.Evaluator is required")
	}
	if len(entryPoints) == 0 {
		return nil, errors.New("graph: at least one entry point is required")
	}
	for _, ep := range entryPoints {
		if solution.IsSolutionPath(ep.ProjectPath) {
			if len(entryPoints) == 1 {
				return BuildGraphFromSolution(ctx, ep.ProjectPath, ep.GlobalProperties, opts)
			}
			return nil, fmt.Errorf("graph: solution file %s cannot be combined with other entry points", ep.ProjectPath)
		}
	}

	metadatas := make([]configuration.Metadata, 0, len(entryPoints))
	for _, ep := range entryPoints {
		md, err := configuration.NewMetadata(ep.ProjectPath, ep.GlobalProperties)
		if err != nil {
			return nil, err
		}
		metadatas = append(metadatas, md)
	}
	return buildGraph(ctx, metadatas, nil, opts)
}

// BuildGraphFromSolution parses the solution, derives one entry point per
// member project mapped into the selected solution configuration, builds the
// graph, and injects the solution's declared build-order edges.
func BuildGraphFromSolution(ctx context.Context, solutionPath string, global configuration.GlobalProperties, opts Options) (*ProjectGraph, error) {
	if opts.Evaluator == nil {
		return nil, errors.New("graph: Options.Evaluator is required")
	}
	parser := opts.SolutionParser
	if parser == nil {
		parser = solution.NewHCLParser()
	}
	sln, err := parser.Parse(ctx, solutionPath)
	if err != nil {
		return nil, err
	}

	metadatas, entryByID, err := solutionEntryPoints(ctx, sln, global, opts.SolutionConfiguration)
	if err != nil {
		return nil, err
	}
	return buildGraph(ctx, metadatas, &solutionEdges{solution: sln, entryByID: entryByID}, opts)
}

// buildGraph is the common construction path: parallel expansion, edge
// assembly, multi-targeting collapse, optional solution edge injection,
// cycle detection, freeze.
func buildGraph(ctx context.Context, entryPoints []configuration.Metadata, slnEdges *solutionEdges, opts Options) (*ProjectGraph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting project graph construction.", "entry_points", len(entryPoints), "parallelism", opts.DegreeOfParallelism)

	b := &builder{
		opts:        opts,
		interpreter: interpret.New(opts.Evaluator),
		work:        workset.New[string, *parsedProject](ctx, opts.DegreeOfParallelism),
	}

	for _, md := range entryPoints {
		b.schedule(ctx, md)
	}
	if err := b.work.WaitForAll(); err != nil {
		// A lone failure surfaces as itself; concurrent failures stay aggregated.
		if agg, ok := workset.IsAggregate(err); ok && len(agg.Errs) == 1 {
			return nil, agg.Errs[0]
		}
		return nil, err
	}
	parsed := b.work.CompletedWork()
	logger.Debug("Expansion complete.", "configuration_count", len(parsed))

	graph := &ProjectGraph{
		nodes: make(map[string]*ProjectGraphNode, len(parsed)),
		edges: newEdgeStore(),
	}
	for key, p := range parsed {
		graph.nodes[key] = &ProjectGraphNode{
			metadata:    p.metadata,
			project:     p.project,
			projectType: p.projectType,
		}
	}
	for _, key := range sortedKeys(parsed) {
		from := graph.nodes[key]
		for _, ref := range parsed[key].references {
			to := graph.nodes[ref.Target.Fingerprint()]
			if to == nil {
				// Every discovered reference was scheduled, so a missing
				// node means the work set contract was violated.
				return nil, fmt.Errorf("graph: internal error: no node for discovered reference %s", ref.Target)
			}
			graph.edges.add(from, to, ref.Item, ref.Kind)
		}
	}

	collapseOuterBuildReferences(graph, parsed)

	if slnEdges != nil {
		if err := slnEdges.inject(ctx, graph); err != nil {
			return nil, err
		}
	}

	if err := graph.detectCycles(); err != nil {
		return nil, err
	}

	entryNodes := make([]*ProjectGraphNode, 0, len(entryPoints))
	seen := make(map[string]struct{}, len(entryPoints))
	for _, md := range entryPoints {
		key := md.Fingerprint()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entryNodes = append(entryNodes, graph.nodes[key])
	}
	graph.freeze(entryNodes)

	logger.Debug("Project graph construction successful.", "node_count", len(graph.nodes), "root_count", len(graph.roots))
	return graph, nil
}

// schedule registers expansion work for a configuration. The work set's
// key-level dedup makes re-scheduling an already-seen configuration a no-op,
// which keeps diamond and cyclic-looking reference shapes safe.
func (b *builder) schedule(ctx context.Context, md configuration.Metadata) {
	b.work.AddWork(md.Fingerprint(), func() (*parsedProject, error) {
		return b.parse(ctx, md)
	})
}

// parse is one unit of expansion work: evaluate the configuration, classify
// it, discover its outgoing references, and schedule every target not yet
// seen. Outer builds contribute only their synthesized inner-build fan-out;
// their ProjectReference items are carried by the inner builds.
func (b *builder) parse(ctx context.Context, md configuration.Metadata) (*parsedProject, error) {
	project, err := b.opts.Evaluator.Evaluate(ctx, md.ProjectFullPath(), md.GlobalProperties())
	if err != nil {
		return nil, err
	}

	projectType := b.interpreter.Classify(project)
	var refs []interpret.Reference
	if projectType == interpret.OuterBuild {
		refs, err = b.interpreter.SynthesizeInnerBuilds(project)
	} else {
		refs, err = b.interpreter.DiscoverReferences(ctx, project)
	}
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		b.schedule(ctx, ref.Target)
	}
	return &parsedProject{
		metadata:    md,
		project:     project,
		projectType: projectType,
		references:  refs,
	}, nil
}

// collapseOuterBuildReferences supplements every edge pointing at an outer
// build with synthesized edges to that outer build's inner builds, so build
// results propagate from the concrete builds rather than the shim. The
// synthesized edges never displace stronger existing ones.
func collapseOuterBuildReferences(graph *ProjectGraph, parsed map[string]*parsedProject) {
	for _, key := range sortedKeys(parsed) {
		outer := parsed[key]
		if outer.projectType != interpret.OuterBuild {
			continue
		}
		outerNode := graph.nodes[key]

		// Incoming edges existing before the collapse; the fan-out edges
		// themselves originate from the outer node, never point at it.
		referencing := append([]*ProjectGraphNode(nil), outerNode.referencing...)
		for _, from := range referencing {
			if from == outerNode {
				continue
			}
			for _, inner := range outer.references {
				innerNode := graph.nodes[inner.Target.Fingerprint()]
				graph.edges.add(from, innerNode, inner.Item, interpret.KindMultitargeting)
			}
		}
	}
}
