package interpret

import (
	"context"
	"strings"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/vk/graphplan/internal/evaluate"
)

// negotiatePlatform picks a platform for the referenced project that is
// compatible with the referencing one. The referenced project is evaluated
// without a Platform global so its own declarations are visible.
//
// Resolution order: same-platform match in the referenced project's declared
// platforms, then a lookup-table translation (referencing project's table
// first, then the referenced project's own), then AnyCPU if declared, and
// finally no override at all.
func (in *Interpreter) negotiatePlatform(ctx context.Context, project *evaluate.Project, item evaluate.Item, targetPath string, props configuration.GlobalProperties) (configuration.GlobalProperties, error) {
	logger := ctxlog.FromContext(ctx)

	referencingPlatform := project.PropertyValue(PlatformProperty)
	if v := item.Metadata(OverridePlatformNegotiationMetadata); v != "" {
		referencingPlatform = v
	}

	referenced, err := in.evaluator.Evaluate(ctx, targetPath, props.Without(PlatformProperty))
	if err != nil {
		return configuration.GlobalProperties{}, err
	}

	candidates := splitList(referenced.PropertyValue(PlatformsProperty))
	lookupTables := []string{
		item.Metadata(PlatformLookupTableProperty),
		project.PropertyValue(PlatformLookupTableProperty),
		referenced.PropertyValue(PlatformLookupTableProperty),
	}

	chosen := nearestPlatform(referencingPlatform, candidates, lookupTables)
	if chosen == "" {
		logger.Debug("Platform negotiation found no compatible platform; deferring to the referenced project's default.",
			"from", project.FullPath(), "to", targetPath, "referencing_platform", referencingPlatform)
		return props.Without(PlatformProperty), nil
	}
	logger.Debug("Platform negotiated.", "from", project.FullPath(), "to", targetPath, "platform", chosen)
	return props.With(PlatformProperty, chosen), nil
}

// nearestPlatform applies the negotiation order over the referenced project's
// declared platforms. An empty result means negotiation failed.
func nearestPlatform(referencingPlatform string, candidates []string, lookupTables []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if containsPlatform(candidates, referencingPlatform) {
		return referencingPlatform
	}
	for _, table := range lookupTables {
		pairs, ok := splitPairs(table)
		if !ok {
			continue
		}
		for from, to := range pairs {
			if strings.EqualFold(from, referencingPlatform) && containsPlatform(candidates, to) {
				return to
			}
		}
	}
	if containsPlatform(candidates, AnyCPUPlatform) {
		return AnyCPUPlatform
	}
	return ""
}

func containsPlatform(candidates []string, platform string) bool {
	if platform == "" {
		return false
	}
	for _, candidate := range candidates {
		if strings.EqualFold(candidate, platform) {
			return true
		}
	}
	return false
}
