// Package interpret classifies evaluated projects and extracts their outgoing
// reference edges: ProjectReference items with per-edge global-property
// transforms, synthesized multi-targeting fan-out, and platform negotiation.
package interpret

import (
	"fmt"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/evaluate"
)

// ProjectType classifies how a project participates in the graph.
type ProjectType int

const (
	// NonMultitargeting is an ordinary single-configuration project.
	NonMultitargeting ProjectType = iota
	// OuterBuild is the multi-targeting shim that fans out into inner builds
	// and produces no build output of its own.
	OuterBuild
	// InnerBuild is one concrete instance of a multi-targeting project, with
	// the inner-build axis pinned to a single value.
	InnerBuild
)

// String returns the classification name for logs and errors.
func (t ProjectType) String() string {
	switch t {
	case OuterBuild:
		return "outer build"
	case InnerBuild:
		return "inner build"
	default:
		return "non-multitargeting"
	}
}

// ReferenceKind records what produced a reference edge. Ordering matters:
// higher kinds never overwrite lower ones in the graph's edge store.
type ReferenceKind int

const (
	// KindProjectReference is an edge from an explicit ProjectReference item.
	KindProjectReference ReferenceKind = iota
	// KindMultitargeting is an edge synthesized by multi-targeting fan-out
	// or outer-build collapsing.
	KindMultitargeting
	// KindSolution is an edge injected from a solution's declared build
	// ordering, with no backing ProjectReference item.
	KindSolution
)

// String returns the kind name for diagnostics.
func (k ReferenceKind) String() string {
	switch k {
	case KindMultitargeting:
		return "multitargeting"
	case KindSolution:
		return "solution"
	default:
		return "project reference"
	}
}

// Reference is one discovered outgoing edge: the target configuration plus
// the item that produced it.
type Reference struct {
	Target configuration.Metadata
	Item   evaluate.Item
	Kind   ReferenceKind
}

// NestedSolutionError reports a project file declaring a reference to a
// solution file, which is invalid.
type NestedSolutionError struct {
	ReferencingProject string
	SolutionPath       string
}

// Error implements the error interface.
func (e *NestedSolutionError) Error() string {
	return fmt.Sprintf("project %s references solution file %s; solution files cannot be referenced as projects", e.ReferencingProject, e.SolutionPath)
}

// Interpreter derives classification and reference edges from evaluated
// projects. It needs the evaluator to inspect referenced projects during
// platform negotiation. Safe for concurrent use when the evaluator is.
type Interpreter struct {
	evaluator evaluate.Evaluator
}

// New creates an interpreter over the given evaluator.
func New(evaluator evaluate.Evaluator) *Interpreter {
	return &Interpreter{evaluator: evaluator}
}

// Classify determines the project's type from its inner-build properties.
func (in *Interpreter) Classify(project *evaluate.Project) ProjectType {
	innerProp := project.PropertyValue(InnerBuildPropertyName)
	if innerProp == "" {
		return NonMultitargeting
	}
	if project.PropertyValue(innerProp) != "" {
		return InnerBuild
	}
	if len(in.innerBuildValues(project)) > 0 {
		return OuterBuild
	}
	return NonMultitargeting
}

// innerBuildValues returns the fan-out values of a multi-targeting project:
// the list held by the property named by InnerBuildPropertyValues.
func (in *Interpreter) innerBuildValues(project *evaluate.Project) []string {
	listProp := project.PropertyValue(InnerBuildPropertyValuesName)
	if listProp == "" {
		return nil
	}
	return splitList(project.PropertyValue(listProp))
}

// SynthesizeInnerBuilds returns one reference per inner-build instantiation
// of an outer-build project: the same project path with the inner-build
// property pinned to one fan-out value.
func (in *Interpreter) SynthesizeInnerBuilds(project *evaluate.Project) ([]Reference, error) {
	innerProp := project.PropertyValue(InnerBuildPropertyName)
	values := in.innerBuildValues(project)

	refs := make([]Reference, 0, len(values))
	for _, value := range values {
		target, err := configuration.NewMetadata(project.FullPath(), project.GlobalProperties().With(innerProp, value))
		if err != nil {
			return nil, err
		}
		refs = append(refs, Reference{
			Target: target,
			Item: evaluate.NewItem(ProjectReferenceItem, project.FullPath(), map[string]string{
				SetTargetFrameworkMetadata: value,
			}),
			Kind: KindMultitargeting,
		})
	}
	return refs, nil
}
