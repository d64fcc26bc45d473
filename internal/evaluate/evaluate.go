// Package evaluate defines the project-evaluation collaborator contract used
// by graph construction, together with the evaluated-project value types and
// the concrete HCL manifest evaluator.
package evaluate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vk/graphplan/internal/configuration"
)

// Evaluator turns a project file plus global properties into an evaluated
// project exposing properties and item lists. Implementations must be safe
// for concurrent use; graph construction calls Evaluate from many workers.
type Evaluator interface {
	Evaluate(ctx context.Context, projectPath string, global configuration.GlobalProperties) (*Project, error)
}

// EvaluationError reports a failure to evaluate one project file.
type EvaluationError struct {
	ProjectPath string
	Err         error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return "evaluating project " + e.ProjectPath + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause.
func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Project is an evaluated project: the property and item view of one project
// file under one set of global properties. Immutable after construction.
type Project struct {
	fullPath string
	global   configuration.GlobalProperties
	// properties holds the project-declared properties keyed by folded name.
	properties map[string]string
	// items holds item lists keyed by folded item type.
	items map[string][]Item
}

// NewProject assembles an evaluated project. The property and item inputs are
// copied; callers keep no shared mutable state with the result.
func NewProject(fullPath string, global configuration.GlobalProperties, properties map[string]string, items []Item) *Project {
	props := make(map[string]string, len(properties))
	for name, value := range properties {
		props[strings.ToLower(name)] = value
	}
	byType := make(map[string][]Item)
	for _, item := range items {
		folded := strings.ToLower(item.ItemType)
		byType[folded] = append(byType[folded], item)
	}
	return &Project{
		fullPath:   fullPath,
		global:     global,
		properties: props,
		items:      byType,
	}
}

// FullPath returns the absolute path of the evaluated project file.
func (p *Project) FullPath() string {
	return p.fullPath
}

// Directory returns the directory containing the project file. Relative
// reference paths resolve against it.
func (p *Project) Directory() string {
	return filepath.Dir(p.fullPath)
}

// GlobalProperties returns the global properties the project was evaluated under.
func (p *Project) GlobalProperties() configuration.GlobalProperties {
	return p.global
}

// PropertyValue looks up a property case-insensitively. Global properties
// override project-declared properties of the same name; missing properties
// return the empty string.
func (p *Project) PropertyValue(name string) string {
	if p.global.Has(name) {
		return p.global.Value(name)
	}
	return p.properties[strings.ToLower(name)]
}

// Items returns the project's items of the given type, case-insensitively.
// The returned slice must not be modified.
func (p *Project) Items(itemType string) []Item {
	return p.items[strings.ToLower(itemType)]
}

// Item is one evaluated project item: an include string plus metadata.
type Item struct {
	ItemType string
	Include  string
	metadata map[string]string
}

// NewItem constructs an item, copying the metadata map.
func NewItem(itemType, include string, metadata map[string]string) Item {
	meta := make(map[string]string, len(metadata))
	for name, value := range metadata {
		meta[strings.ToLower(name)] = value
	}
	return Item{ItemType: itemType, Include: include, metadata: meta}
}

// Metadata looks up item metadata case-insensitively; absent names return "".
func (i Item) Metadata(name string) string {
	return i.metadata[strings.ToLower(name)]
}

// HasMetadata reports whether the named metadata is present, even when empty.
func (i Item) HasMetadata(name string) bool {
	_, ok := i.metadata[strings.ToLower(name)]
	return ok
}

// ResolvedPath returns the item's include resolved to an absolute path
// against the given base directory.
func (i Item) ResolvedPath(baseDir string) string {
	if filepath.IsAbs(i.Include) {
		return filepath.Clean(i.Include)
	}
	return filepath.Clean(filepath.Join(baseDir, i.Include))
}
