// Package resultcache stores per-configuration build results on disk so an
// isolated build of one configuration can consume the outputs of the
// configurations it references without re-entering them.
package resultcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vk/graphplan/internal/configuration"
)

// TargetResult records the outcome of one target of a built configuration.
type TargetResult struct {
	// Success reports whether the target completed without error.
	Success bool `yaml:"success"`
	// Outputs lists the items the target produced, typically file paths.
	Outputs []string `yaml:"outputs,omitempty"`
}

// Entry holds the recorded results for one project configuration.
type Entry struct {
	ProjectFullPath  string                  `yaml:"project"`
	GlobalProperties map[string]string       `yaml:"global_properties,omitempty"`
	Targets          map[string]TargetResult `yaml:"targets,omitempty"`
}

// Cache maps configuration fingerprints to their recorded build results. The
// zero value is not usable; use New or Load.
type Cache struct {
	entries map[string]Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// Record stores the results of one configuration, replacing any prior entry
// for the same configuration.
func (c *Cache) Record(md configuration.Metadata, targets map[string]TargetResult) {
	c.entries[md.Fingerprint()] = Entry{
		ProjectFullPath:  md.ProjectFullPath(),
		GlobalProperties: md.GlobalProperties().ToMap(),
		Targets:          targets,
	}
}

// Result returns the recorded entry for a configuration, if present.
func (c *Cache) Result(md configuration.Metadata) (Entry, bool) {
	entry, ok := c.entries[md.Fingerprint()]
	return entry, ok
}

// Len returns the number of recorded configurations.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Fingerprints returns the recorded configuration fingerprints in sorted order.
func (c *Cache) Fingerprints() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MergeFrom copies every entry of other into c. Entries already present in c
// win; a configuration's own results are never displaced by a referenced
// project's cache.
func (c *Cache) MergeFrom(other *Cache) {
	if other == nil {
		return
	}
	for key, entry := range other.entries {
		if _, exists := c.entries[key]; exists {
			continue
		}
		c.entries[key] = entry
	}
}

// cacheFile is the on-disk shape.
type cacheFile struct {
	Entries map[string]Entry `yaml:"entries"`
}

// Load reads a cache file. A missing file is an error; use LoadOrEmpty when
// absence means a fresh build.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result cache %s: %w", path, err)
	}
	var file cacheFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse result cache %s: %w", path, err)
	}
	cache := New()
	for key, entry := range file.Entries {
		cache.entries[key] = entry
	}
	return cache, nil
}

// LoadOrEmpty reads a cache file, treating a missing file as an empty cache.
func LoadOrEmpty(path string) (*Cache, error) {
	cache, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, err
	}
	return cache, nil
}

// Save writes the cache to path, creating parent directories as needed.
func (c *Cache) Save(path string) error {
	data, err := yaml.Marshal(cacheFile{Entries: c.entries})
	if err != nil {
		return fmt.Errorf("failed to serialize result cache: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create result cache directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write result cache %s: %w", path, err)
	}
	return nil
}
