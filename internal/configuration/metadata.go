// Package configuration defines the identity value for one buildable project
// configuration: an absolute project path paired with the global properties
// it is evaluated under. Two references to the same project file with
// different global properties are different configurations and produce
// different graph nodes.
package configuration

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Metadata identifies one build configuration of a project. It is immutable
// after construction and safe to share between goroutines.
type Metadata struct {
	projectFullPath  string
	globalProperties GlobalProperties
}

// NewMetadata normalizes projectPath to an absolute, cleaned path and pairs
// it with the given global properties.
func NewMetadata(projectPath string, global GlobalProperties) (Metadata, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return Metadata{}, fmt.Errorf("resolving project path %q: %w", projectPath, err)
	}
	return Metadata{
		projectFullPath:  filepath.Clean(abs),
		globalProperties: global,
	}, nil
}

// ProjectFullPath returns the absolute path of the project file.
func (m Metadata) ProjectFullPath() string {
	return m.projectFullPath
}

// GlobalProperties returns the configuration's global property set.
func (m Metadata) GlobalProperties() GlobalProperties {
	return m.globalProperties
}

// Equal reports whether two configurations identify the same (path, global
// properties) pair. Paths compare case-insensitively, matching the host
// filesystems the project files come from.
func (m Metadata) Equal(other Metadata) bool {
	if !strings.EqualFold(m.projectFullPath, other.projectFullPath) {
		return false
	}
	return m.globalProperties.Equal(other.globalProperties)
}

// Fingerprint returns a canonical string form of the configuration identity.
// Two Metadata values are Equal exactly when their fingerprints match, so the
// fingerprint serves as a stable map and work-set key.
func (m Metadata) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(m.projectFullPath))
	for _, name := range m.globalProperties.SortedNames() {
		sb.WriteByte('|')
		sb.WriteString(foldName(name))
		sb.WriteByte('=')
		sb.WriteString(m.globalProperties.Value(name))
	}
	return sb.String()
}

// String renders the configuration for log output and error messages.
func (m Metadata) String() string {
	if m.globalProperties.Len() == 0 {
		return m.projectFullPath
	}
	return m.projectFullPath + " (" + m.globalProperties.String() + ")"
}
