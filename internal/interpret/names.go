package interpret

import "strings"

// Well-known item type, property, and metadata names consumed during
// interpretation. List-valued properties are semicolon-delimited.
const (
	// ProjectReferenceItem is the item type carrying project-to-project references.
	ProjectReferenceItem = "ProjectReference"

	// InnerBuildPropertyName names the property whose value is the name of the
	// project's inner-build axis property (e.g. "TargetFramework").
	InnerBuildPropertyName = "InnerBuildProperty"
	// InnerBuildPropertyValuesName names the property whose value is the name
	// of the list property holding the inner-build fan-out values
	// (e.g. "TargetFrameworks").
	InnerBuildPropertyValuesName = "InnerBuildPropertyValues"
	// DefaultInnerBuildProperty is assumed when SetTargetFramework metadata is
	// applied to a reference whose source declares no inner-build property.
	DefaultInnerBuildProperty = "TargetFramework"

	// SetConfigurationMetadata overrides the Configuration property on an edge.
	SetConfigurationMetadata = "SetConfiguration"
	// SetPlatformMetadata overrides the Platform property on an edge.
	SetPlatformMetadata = "SetPlatform"
	// SetTargetFrameworkMetadata pins the referenced project's inner-build
	// axis on an edge.
	SetTargetFrameworkMetadata = "SetTargetFramework"
	// AdditionalPropertiesMetadata carries extra "Name=Value;..." pairs to
	// apply on an edge.
	AdditionalPropertiesMetadata = "AdditionalProperties"

	// ConfigurationProperty and PlatformProperty are the conventional
	// configuration axes.
	ConfigurationProperty = "Configuration"
	PlatformProperty      = "Platform"

	// EnableDynamicPlatformResolutionProperty turns on platform negotiation
	// for references without an explicit SetPlatform.
	EnableDynamicPlatformResolutionProperty = "EnableDynamicPlatformResolution"
	// PlatformsProperty lists the platforms a project declares buildable.
	PlatformsProperty = "Platforms"
	// PlatformLookupTableProperty maps referencing platforms to referenced
	// platforms ("x86=AnyCPU;x64=x64").
	PlatformLookupTableProperty = "PlatformLookupTable"
	// OverridePlatformNegotiationMetadata substitutes the referencing
	// platform fed into negotiation for one edge.
	OverridePlatformNegotiationMetadata = "OverridePlatformNegotiationValue"
	// AnyCPUPlatform is the fallback platform of last resort in negotiation.
	AnyCPUPlatform = "AnyCPU"
)

// splitList splits a semicolon-delimited property value, trimming whitespace
// and dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitPairs parses a "Name=Value;Name=Value" list. Entries without '=' or
// with an empty name are reported as malformed by returning false.
func splitPairs(value string) (map[string]string, bool) {
	entries := splitList(value)
	if len(entries) == 0 {
		return nil, true
	}
	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, val, found := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, false
		}
		out[name] = strings.TrimSpace(val)
	}
	return out, true
}
