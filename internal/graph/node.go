package graph

import (
	"sort"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/interpret"
)

// ProjectGraphNode is one project configuration in the graph. Nodes are
// mutable only during construction; every accessor below observes the frozen,
// fully built state.
type ProjectGraphNode struct {
	metadata    configuration.Metadata
	project     *evaluate.Project
	projectType interpret.ProjectType

	// references holds outgoing edges (projects this node depends on);
	// referencing holds incoming edges. Both are sorted deterministically
	// when the graph freezes.
	references  []*ProjectGraphNode
	referencing []*ProjectGraphNode
}

// Metadata returns the node's configuration identity.
func (n *ProjectGraphNode) Metadata() configuration.Metadata {
	return n.metadata
}

// Project returns the node's evaluated project handle.
func (n *ProjectGraphNode) Project() *evaluate.Project {
	return n.project
}

// Type returns the node's multi-targeting classification.
func (n *ProjectGraphNode) Type() interpret.ProjectType {
	return n.projectType
}

// ProjectReferences returns the nodes this node depends on. Callers must not
// modify the returned slice.
func (n *ProjectGraphNode) ProjectReferences() []*ProjectGraphNode {
	return n.references
}

// ReferencingProjects returns the nodes that depend on this node. Callers
// must not modify the returned slice.
func (n *ProjectGraphNode) ReferencingProjects() []*ProjectGraphNode {
	return n.referencing
}

// sortNodes orders nodes by configuration fingerprint for deterministic
// iteration independent of discovery order.
func sortNodes(nodes []*ProjectGraphNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].metadata.Fingerprint() < nodes[j].metadata.Fingerprint()
	})
}
