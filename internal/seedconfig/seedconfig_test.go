package seedconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"catchup-feed/internal/seedconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
allowed_hosts:
  - allowed.example
sources:
  - url: https://allowed.example/list
    include:
      - "/grants/"
    exclude:
      - "/archive/"
    max_new: 10
    discover: tavily
    query: "subsidy 2026"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ParsesSeedFile(t *testing.T) {
	path := writeTemp(t, sampleYAML)

	seed, err := seedconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"allowed.example"}, seed.AllowedHosts)
	require.Len(t, seed.Sources, 1)
	assert.Equal(t, "https://allowed.example/list", seed.Sources[0].URL)
	assert.Equal(t, 10, seed.Sources[0].MaxNew)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := seedconfig.Load("/nonexistent/seed.yaml")
	assert.Error(t, err)
}

func TestCompiledSource_IncludeRequiresMatch(t *testing.T) {
	cs, err := seedconfig.Compile(seedconfig.Source{Include: []string{"/grants/"}})
	require.NoError(t, err)

	assert.True(t, cs.Matches("https://allowed.example/grants/1"))
	assert.False(t, cs.Matches("https://allowed.example/other/1"))
}

func TestCompiledSource_ExcludeRejectsOnAnyMatch(t *testing.T) {
	cs, err := seedconfig.Compile(seedconfig.Source{Exclude: []string{"/archive/"}})
	require.NoError(t, err)

	assert.False(t, cs.Matches("https://allowed.example/archive/1"))
	assert.True(t, cs.Matches("https://allowed.example/grants/1"))
}

func TestCompiledSource_NoIncludeIsVacuouslyTrue(t *testing.T) {
	cs, err := seedconfig.Compile(seedconfig.Source{})
	require.NoError(t, err)
	assert.True(t, cs.Matches("https://allowed.example/anything"))
}

func TestCompile_InvalidRegexErrors(t *testing.T) {
	_, err := seedconfig.Compile(seedconfig.Source{Include: []string{"("}})
	assert.Error(t, err)
}
