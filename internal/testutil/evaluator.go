// Package testutil provides shared helpers for graph construction tests,
// chiefly an in-memory Evaluator with per-configuration evaluation counting.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/evaluate"
)

// FakeEvaluator is an in-memory Evaluator. Projects are registered up front
// with their properties and items; Evaluate assembles an evaluated project on
// demand. Safe for concurrent use.
type FakeEvaluator struct {
	mu       sync.Mutex
	projects map[string]fakeProject
	// evaluations counts Evaluate calls per configuration fingerprint.
	evaluations map[string]int
}

type fakeProject struct {
	path       string
	properties map[string]string
	items      []evaluate.Item
}

// NewFakeEvaluator creates an empty evaluator.
func NewFakeEvaluator() *FakeEvaluator {
	return &FakeEvaluator{
		projects:    make(map[string]fakeProject),
		evaluations: make(map[string]int),
	}
}

// AddProject registers a project under an absolute path.
func (e *FakeEvaluator) AddProject(path string, properties map[string]string, items ...evaluate.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.projects[pathKey(path)] = fakeProject{
		path:       filepath.Clean(path),
		properties: properties,
		items:      items,
	}
}

// Ref builds a ProjectReference item for use with AddProject.
func Ref(include string, metadata map[string]string) evaluate.Item {
	return evaluate.NewItem("ProjectReference", include, metadata)
}

// Evaluate implements evaluate.Evaluator.
func (e *FakeEvaluator) Evaluate(_ context.Context, projectPath string, global configuration.GlobalProperties) (*evaluate.Project, error) {
	e.mu.Lock()
	project, ok := e.projects[pathKey(projectPath)]
	if ok {
		md, err := configuration.NewMetadata(projectPath, global)
		if err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.evaluations[md.Fingerprint()]++
	}
	e.mu.Unlock()

	if !ok {
		return nil, &evaluate.EvaluationError{ProjectPath: projectPath, Err: errors.New("project does not exist")}
	}
	return evaluate.NewProject(project.path, global, project.properties, project.items), nil
}

// EvaluationCount returns how many times the exact configuration was evaluated.
func (e *FakeEvaluator) EvaluationCount(path string, global configuration.GlobalProperties) int {
	md, err := configuration.NewMetadata(path, global)
	if err != nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evaluations[md.Fingerprint()]
}

// TotalEvaluations returns the number of Evaluate calls across all
// configurations of the given project path.
func (e *FakeEvaluator) TotalEvaluations(path string) int {
	prefix := strings.ToLower(filepath.Clean(path))
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for fingerprint, n := range e.evaluations {
		if fingerprint == prefix || strings.HasPrefix(fingerprint, prefix+"|") {
			total += n
		}
	}
	return total
}

func pathKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
