package resultcache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphplan/internal/configuration"
	"github.com/vk/graphplan/internal/resultcache"
)

func metadata(t *testing.T, path string, props map[string]string) configuration.Metadata {
	t.Helper()
	md, err := configuration.NewMetadata(path, configuration.NewGlobalProperties(props))
	require.NoError(t, err)
	return md
}

func TestRecordAndResult(t *testing.T) {
	cache := resultcache.New()
	md := metadata(t, "/work/a.hcl", map[string]string{"Configuration": "Debug"})

	cache.Record(md, map[string]resultcache.TargetResult{
		"Build": {Success: true, Outputs: []string{"/out/a.bin"}},
	})

	entry, ok := cache.Result(md)
	require.True(t, ok)
	assert.Equal(t, "/work/a.hcl", entry.ProjectFullPath)
	assert.Equal(t, "Debug", entry.GlobalProperties["Configuration"])
	assert.True(t, entry.Targets["Build"].Success)

	// Different global properties are a different configuration.
	other := metadata(t, "/work/a.hcl", nil)
	_, ok = cache.Result(other)
	assert.False(t, ok)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.yaml")

	cache := resultcache.New()
	md := metadata(t, "/work/a.hcl", map[string]string{"TargetFramework": "net8.0"})
	cache.Record(md, map[string]resultcache.TargetResult{
		"Build": {Success: true, Outputs: []string{"/out/a-net8.0.bin"}},
		"Pack":  {Success: false},
	})
	require.NoError(t, cache.Save(path))

	loaded, err := resultcache.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())

	entry, ok := loaded.Result(md)
	require.True(t, ok)
	assert.Equal(t, "/work/a.hcl", entry.ProjectFullPath)
	assert.Equal(t, map[string]string{"TargetFramework": "net8.0"}, entry.GlobalProperties)
	assert.Equal(t, []string{"/out/a-net8.0.bin"}, entry.Targets["Build"].Outputs)
	assert.False(t, entry.Targets["Pack"].Success)
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := resultcache.Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	cache, err := resultcache.LoadOrEmpty(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- not yaml"), 0o644))

	_, err := resultcache.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse result cache")

	_, err = resultcache.LoadOrEmpty(path)
	require.Error(t, err, "a corrupt cache must not silently become empty")
}

func TestMergeFrom(t *testing.T) {
	a := metadata(t, "/work/a.hcl", nil)
	b := metadata(t, "/work/b.hcl", nil)

	own := resultcache.New()
	own.Record(a, map[string]resultcache.TargetResult{"Build": {Success: true}})

	referenced := resultcache.New()
	referenced.Record(a, map[string]resultcache.TargetResult{"Build": {Success: false}})
	referenced.Record(b, map[string]resultcache.TargetResult{"Build": {Success: true}})

	own.MergeFrom(referenced)
	assert.Equal(t, 2, own.Len())

	entry, ok := own.Result(a)
	require.True(t, ok)
	assert.True(t, entry.Targets["Build"].Success, "existing entries must win over merged ones")

	_, ok = own.Result(b)
	assert.True(t, ok)

	own.MergeFrom(nil)
	assert.Equal(t, 2, own.Len())
}

func TestFingerprintsSorted(t *testing.T) {
	cache := resultcache.New()
	cache.Record(metadata(t, "/work/b.hcl", nil), nil)
	cache.Record(metadata(t, "/work/a.hcl", nil), nil)

	assert.Equal(t, []string{"/work/a.hcl", "/work/b.hcl"}, cache.Fingerprints())
}
