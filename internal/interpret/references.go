package interpret

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/solution"
)

// DiscoverReferences enumerates the project's ProjectReference items and
// computes, for each, the referenced configuration: the referenced project's
// absolute path plus the global properties carried across the edge.
func (in *Interpreter) DiscoverReferences(ctx context.Context, project *evaluate.Project) ([]Reference, error) {
	logger := ctxlog.FromContext(ctx)
	items := project.Items(ProjectReferenceItem)
	refs := make([]Reference, 0, len(items))

	for _, item := range items {
		targetPath := item.ResolvedPath(project.Directory())
		if solution.IsSolutionPath(targetPath) {
			return nil, &NestedSolutionError{
				ReferencingProject: project.FullPath(),
				SolutionPath:       targetPath,
			}
		}

		edgeProps, err := in.referenceGlobalProperties(ctx, project, item, targetPath)
		if err != nil {
			return nil, err
		}
		target, err := configuration.NewMetadata(targetPath, edgeProps)
		if err != nil {
			return nil, err
		}
		logger.Debug("Discovered project reference.", "from", project.FullPath(), "to", target.String())
		refs = append(refs, Reference{Target: target, Item: item, Kind: KindProjectReference})
	}
	return refs, nil
}

// referenceGlobalProperties computes the global properties applied on one
// reference edge: the referencing configuration's properties, minus the
// referencing project's inner-build axis, plus the edge-local metadata
// transforms, with platform handling last.
//
// Platform precedence: explicit SetPlatform beats negotiation; negotiation
// (when enabled) beats plain inheritance; a failed negotiation removes the
// Platform override entirely, deferring to the referenced project's default.
func (in *Interpreter) referenceGlobalProperties(ctx context.Context, project *evaluate.Project, item evaluate.Item, targetPath string) (configuration.GlobalProperties, error) {
	props := project.GlobalProperties()

	// The inner-build axis never crosses a reference implicitly; each
	// referenced project fans out (or not) on its own terms.
	innerProp := project.PropertyValue(InnerBuildPropertyName)
	if innerProp == "" {
		innerProp = DefaultInnerBuildProperty
	}
	props = props.Without(innerProp)

	if raw := item.Metadata(AdditionalPropertiesMetadata); raw != "" {
		pairs, ok := splitPairs(raw)
		if !ok {
			return configuration.GlobalProperties{}, fmt.Errorf("project %s: malformed %s metadata %q on reference to %s", project.FullPath(), AdditionalPropertiesMetadata, raw, targetPath)
		}
		for name, value := range pairs {
			props = props.With(name, value)
		}
	}
	if v := item.Metadata(SetConfigurationMetadata); v != "" {
		props = props.With(ConfigurationProperty, v)
	}
	if v := item.Metadata(SetTargetFrameworkMetadata); v != "" {
		props = props.With(innerProp, v)
	}

	if v := item.Metadata(SetPlatformMetadata); v != "" {
		return props.With(PlatformProperty, v), nil
	}
	if !strings.EqualFold(project.PropertyValue(EnableDynamicPlatformResolutionProperty), "true") {
		return props, nil
	}
	return in.negotiatePlatform(ctx, project, item, targetPath, props)
}
