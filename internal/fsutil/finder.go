// Package fsutil provides file system discovery helpers for project and
// solution manifests.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/graphplan/internal/solution"
)

const manifestExtension = ".hcl"

// FindProjectFiles recursively searches rootPath for project manifests,
// excluding solution files. Paths are returned sorted.
func FindProjectFiles(rootPath string) ([]string, error) {
	return find(rootPath, func(name string) bool {
		return strings.HasSuffix(name, manifestExtension) && !solution.IsSolutionPath(name)
	})
}

// FindSolutionFiles recursively searches rootPath for solution files. Paths
// are returned sorted.
func FindSolutionFiles(rootPath string) ([]string, error) {
	return find(rootPath, solution.IsSolutionPath)
}

// FindSingleSolution locates exactly one solution file under rootPath. Zero
// or several candidates is an error, mirroring the behavior of build tools
// invoked in a directory without naming a target.
func FindSingleSolution(rootPath string) (string, error) {
	candidates, err := FindSolutionFiles(rootPath)
	if err != nil {
		return "", err
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no solution file found under %s", rootPath)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("multiple solution files found under %s: %s", rootPath, strings.Join(candidates, ", "))
	}
}

func find(rootPath string, match func(name string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
