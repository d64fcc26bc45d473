package app_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphplan/internal/app"
	"github.com/vk/graphplan/internal/resultcache"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runApp(t *testing.T, cfg app.Config) (string, error) {
	t.Helper()
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	planner := app.NewApp(out, io.Discard, config)
	runErr := planner.Run(context.Background(), config)
	return out.String(), runErr
}

func TestNewConfigValidation(t *testing.T) {
	_, err := app.NewConfig(app.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EntryPath")

	_, err = app.NewConfig(app.Config{EntryPath: "x.hcl", Parallelism: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parallelism")
}

func TestRunPlansSingleProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.hcl", `project {}`)
	entry := writeFile(t, dir, "app.hcl", `
project {
  item "ProjectReference" {
    include = "lib.hcl"
  }
}
`)

	out, err := runApp(t, app.Config{EntryPath: entry})
	require.NoError(t, err)
	assert.Contains(t, out, "Build plan (2 configurations):")
	assert.Less(t, strings.Index(out, "lib.hcl"), strings.Index(out, "app.hcl"))
}

func TestRunDiscoversProjectsInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `project {}`)
	writeFile(t, dir, "b.hcl", `project {}`)

	out, err := runApp(t, app.Config{EntryPath: dir})
	require.NoError(t, err)
	assert.Contains(t, out, "Build plan (2 configurations):")
}

func TestRunDiscoversSolutionInDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.hcl", `project {}`)
	writeFile(t, dir, "all.sln.hcl", `
solution {
  project "one" {
    id   = "16f0a36a-3b5a-4fc1-9d1f-6a77e7b5f0a1"
    path = "one.hcl"
  }
}
`)

	out, err := runApp(t, app.Config{EntryPath: dir})
	require.NoError(t, err)
	assert.Contains(t, out, "Build plan (1 configurations):")
	assert.Contains(t, out, "one.hcl")
}

func TestRunAppliesGlobalProperties(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "app.hcl", `project {}`)

	out, err := runApp(t, app.Config{
		EntryPath:        entry,
		GlobalProperties: map[string]string{"Configuration": "Release"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration=Release")
}

func TestRunWritesCacheSkeleton(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.hcl", `project {}`)
	entry := writeFile(t, dir, "app.hcl", `
project {
  item "ProjectReference" {
    include = "lib.hcl"
  }
}
`)
	cachePath := filepath.Join(dir, "out", "results.yaml")

	_, err := runApp(t, app.Config{EntryPath: entry, OutputCachePath: cachePath})
	require.NoError(t, err)

	cache, err := resultcache.Load(cachePath)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestRunMissingEntryPath(t *testing.T) {
	_, err := runApp(t, app.Config{EntryPath: filepath.Join(t.TempDir(), "absent.hcl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to access entry path")
}

func TestRunEmptyDirectory(t *testing.T) {
	_, err := runApp(t, app.Config{EntryPath: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project or solution files")
}
