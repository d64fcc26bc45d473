// Package graph constructs and exposes the project dependency graph: the
// transitive closure of buildable project configurations reachable from a set
// of entry points, with edges for project references, multi-targeting
// fan-out, and solution-declared build ordering.
package graph

import (
	"sort"

	"github.com/vk/graphplan/internal/configuration"
)

// ProjectGraph is the immutable result of graph construction.
type ProjectGraph struct {
	nodes       map[string]*ProjectGraphNode
	entryPoints []*ProjectGraphNode
	roots       []*ProjectGraphNode
	topological []*ProjectGraphNode
	edges       *edgeStore
}

// ProjectNodes returns every node in the graph in deterministic order.
func (g *ProjectGraph) ProjectNodes() []*ProjectGraphNode {
	nodes := make([]*ProjectGraphNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sortNodes(nodes)
	return nodes
}

// EntryPointNodes returns the nodes the graph was built from.
func (g *ProjectGraph) EntryPointNodes() []*ProjectGraphNode {
	return g.entryPoints
}

// GraphRoots returns the nodes with no incoming edges.
func (g *ProjectGraph) GraphRoots() []*ProjectGraphNode {
	return g.roots
}

// ProjectNodesTopologicallySorted returns the nodes dependency-first: every
// node's references appear before the node itself. The order is deterministic
// for a given graph regardless of the parallelism construction ran with.
func (g *ProjectGraph) ProjectNodesTopologicallySorted() []*ProjectGraphNode {
	return g.topological
}

// NodeFor returns the node for the given configuration, if present.
func (g *ProjectGraph) NodeFor(metadata configuration.Metadata) (*ProjectGraphNode, bool) {
	node, ok := g.nodes[metadata.Fingerprint()]
	return node, ok
}

// Edge returns the diagnostic record of the edge between two nodes: the item
// that produced it and the edge kind.
func (g *ProjectGraph) Edge(from, to *ProjectGraphNode) (EdgeItem, bool) {
	return g.edges.lookup(from, to)
}

// freeze finalizes the graph: adjacency lists are sorted, roots computed, and
// the topological order precomputed. Must only be called on an acyclic graph.
func (g *ProjectGraph) freeze(entryPoints []*ProjectGraphNode) {
	for _, node := range g.nodes {
		sortNodes(node.references)
		sortNodes(node.referencing)
	}

	g.entryPoints = entryPoints
	for _, node := range g.ProjectNodes() {
		if len(node.referencing) == 0 {
			g.roots = append(g.roots, node)
		}
	}
	g.topological = g.topologicalSort()
}

// topologicalSort runs Kahn's algorithm oriented references-first, breaking
// ties by configuration fingerprint so the order is stable.
func (g *ProjectGraph) topologicalSort() []*ProjectGraphNode {
	remaining := make(map[string]int, len(g.nodes))
	var ready []*ProjectGraphNode
	for _, node := range g.ProjectNodes() {
		remaining[node.metadata.Fingerprint()] = len(node.references)
		if len(node.references) == 0 {
			ready = append(ready, node)
		}
	}

	order := make([]*ProjectGraphNode, 0, len(g.nodes))
	for len(ready) > 0 {
		sortNodes(ready)
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		for _, referencing := range node.referencing {
			key := referencing.metadata.Fingerprint()
			remaining[key]--
			if remaining[key] == 0 {
				ready = append(ready, referencing)
			}
		}
	}
	return order
}

// sortedKeys returns map keys in sorted order, for deterministic iteration
// during construction passes.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
