package evaluate

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// fileRoot decodes the single top-level block of a project manifest.
type fileRoot struct {
	Project *projectBlock `hcl:"project,block"`
}

type projectBlock struct {
	// Properties stays an expression so it can be evaluated against the
	// per-configuration `global` variables.
	Properties hcl.Expression `hcl:"properties,optional"`
	Items      []*itemBlock   `hcl:"item,block"`
}

type itemBlock struct {
	Type     string         `hcl:"type,label"`
	Include  hcl.Expression `hcl:"include"`
	Metadata hcl.Expression `hcl:"metadata,optional"`
}

// HCLEvaluator evaluates HCL project manifests. Parsed files are cached per
// instance; evaluation against distinct global properties re-evaluates the
// cached syntax tree, not the file.
type HCLEvaluator struct {
	mu     sync.Mutex
	parser *hclparse.Parser
}

// NewHCLEvaluator creates an evaluator with an empty parse cache.
func NewHCLEvaluator() *HCLEvaluator {
	return &HCLEvaluator{parser: hclparse.NewParser()}
}

// Evaluate implements the Evaluator interface for HCL project manifests.
func (e *HCLEvaluator) Evaluate(ctx context.Context, projectPath string, global configuration.GlobalProperties) (*Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating project manifest.", "path", projectPath, "global_properties", global.String())

	root, err := e.parseFile(projectPath)
	if err != nil {
		return nil, err
	}
	if root.Project == nil {
		return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("manifest has no project block")}
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"global": globalsValue(global)},
	}

	properties, err := decodeStringMap(root.Project.Properties, evalCtx)
	if err != nil {
		return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("properties attribute: %w", err)}
	}

	items := make([]Item, 0, len(root.Project.Items))
	for _, block := range root.Project.Items {
		include, err := decodeString(block.Include, evalCtx)
		if err != nil {
			return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("item %q include: %w", block.Type, err)}
		}
		metadata, err := decodeStringMap(block.Metadata, evalCtx)
		if err != nil {
			return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("item %q metadata: %w", block.Type, err)}
		}
		items = append(items, NewItem(block.Type, include, metadata))
	}

	logger.Debug("Project manifest evaluated.", "path", projectPath, "property_count", len(properties), "item_count", len(items))
	return NewProject(projectPath, global, properties, items), nil
}

// parseFile parses a manifest through the shared, mutex-guarded parser so the
// syntax tree is read once per file regardless of how many configurations
// evaluate it.
func (e *HCLEvaluator) parseFile(projectPath string) (*fileRoot, error) {
	e.mu.Lock()
	file, diags := e.parser.ParseHCLFile(projectPath)
	e.mu.Unlock()
	if diags.HasErrors() {
		return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("parsing manifest: %s", diags.Error())}
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, &EvaluationError{ProjectPath: projectPath, Err: fmt.Errorf("decoding manifest: %s", diags.Error())}
	}
	return &root, nil
}

// globalsValue exposes the configuration's global properties as a cty object
// for use in manifest expressions (e.g. global.Configuration).
func globalsValue(global configuration.GlobalProperties) cty.Value {
	if global.Len() == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, global.Len())
	for _, name := range global.SortedNames() {
		attrs[name] = cty.StringVal(global.Value(name))
	}
	return cty.ObjectVal(attrs)
}

// decodeString evaluates an expression to a single string.
func decodeString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	value, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", fmt.Errorf("%s", diags.Error())
	}
	converted, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", err
	}
	if converted.IsNull() {
		return "", nil
	}
	return converted.AsString(), nil
}

// decodeStringMap evaluates an optional expression to a string-to-string map.
// A nil or absent expression yields an empty map.
func decodeStringMap(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	value, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s", diags.Error())
	}
	if value.IsNull() {
		return nil, nil
	}
	if !value.CanIterateElements() {
		return nil, fmt.Errorf("expected an object of strings, got %s", value.Type().FriendlyName())
	}
	out := make(map[string]string)
	for it := value.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key, err := convert.Convert(k, cty.String)
		if err != nil {
			return nil, err
		}
		val, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", key.AsString(), err)
		}
		if val.IsNull() {
			continue
		}
		out[key.AsString()] = val.AsString()
	}
	return out, nil
}
