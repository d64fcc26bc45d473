package solution

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	libID = "16f0a36a-3b5a-4fc1-9d1f-6a77e7b5f0a1"
	appID = "27e1b47b-4c6b-4fd2-8e20-7b88f8c6a1b2"
)

func writeSolution(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "all.sln.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIsSolutionPath(t *testing.T) {
	assert.True(t, IsSolutionPath("/work/all.sln.hcl"))
	assert.True(t, IsSolutionPath("/work/ALL.SLN.HCL"))
	assert.False(t, IsSolutionPath("/work/app.hcl"))
	assert.False(t, IsSolutionPath("/work/sln.hcl"))
}

func TestParseSolution(t *testing.T) {
	dir := t.TempDir()
	path := writeSolution(t, dir, `
solution {
  configuration {
    name     = "Debug"
    platform = "AnyCPU"
  }
  configuration {
    name     = "Release"
    platform = "AnyCPU"
  }

  project "lib" {
    id   = "`+libID+`"
    path = "lib/lib.hcl"
    configuration "Debug|AnyCPU" {
      configuration = "Debug"
      platform      = "AnyCPU"
    }
  }

  project "app" {
    id         = "`+appID+`"
    path       = "app/app.hcl"
    depends_on = ["`+libID+`"]
    configuration "Debug|AnyCPU" {
      configuration = "Debug"
      platform      = "x86"
    }
  }
}
`)

	sln, err := NewHCLParser().Parse(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, sln.Path)
	require.Len(t, sln.Projects, 2)
	require.Len(t, sln.Configurations, 2)

	def, ok := sln.DefaultConfiguration()
	require.True(t, ok)
	assert.Equal(t, "Debug|AnyCPU", def.Key())

	rel, ok := sln.ConfigurationByName("release")
	require.True(t, ok)
	assert.Equal(t, "Release", rel.Name)

	lib := sln.ProjectByID(uuid.MustParse(libID))
	require.NotNil(t, lib)
	assert.Equal(t, "lib", lib.Name)
	assert.Equal(t, filepath.Join(dir, "lib", "lib.hcl"), lib.FullPath)

	app := sln.ProjectByID(uuid.MustParse(appID))
	require.NotNil(t, app)
	require.Len(t, app.DependsOn, 1)
	assert.Equal(t, uuid.MustParse(libID), app.DependsOn[0])

	mapping, ok := app.MappingFor(def)
	require.True(t, ok)
	assert.Equal(t, "Debug", mapping.Configuration)
	assert.Equal(t, "x86", mapping.Platform)

	_, ok = app.MappingFor(Configuration{Name: "Release", Platform: "AnyCPU"})
	assert.False(t, ok)
}

func TestParseSolutionErrors(t *testing.T) {
	t.Run("invalid project id", func(t *testing.T) {
		path := writeSolution(t, t.TempDir(), `
solution {
  project "lib" {
    id   = "not-a-uuid"
    path = "lib.hcl"
  }
}
`)
		_, err := NewHCLParser().Parse(context.Background(), path)
		require.Error(t, err)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Contains(t, err.Error(), "invalid id")
	})

	t.Run("duplicate project id", func(t *testing.T) {
		path := writeSolution(t, t.TempDir(), `
solution {
  project "a" {
    id   = "`+libID+`"
    path = "a.hcl"
  }
  project "b" {
    id   = "`+libID+`"
    path = "b.hcl"
  }
}
`)
		_, err := NewHCLParser().Parse(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "share id")
	})

	t.Run("invalid depends_on id", func(t *testing.T) {
		path := writeSolution(t, t.TempDir(), `
solution {
  project "a" {
    id         = "`+libID+`"
    path       = "a.hcl"
    depends_on = ["nope"]
  }
}
`)
		_, err := NewHCLParser().Parse(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid depends_on id")
	})

	t.Run("no solution block", func(t *testing.T) {
		path := writeSolution(t, t.TempDir(), ``)
		_, err := NewHCLParser().Parse(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no solution block")
	})
}
