package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/policy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rdverify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, policy.ModeAdvisory, cfg.Policy.Mode)
	assert.Error(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bundle: model/bundle.yaml
part: /abs/part.rdsexp
stubs: stubs.rdv
policy:
  mode: fail-on
  categories: ["UNCLAIMED PIP"]
hide_categories: ["UNCLAIMED SITE"]
only_tile_pattern: "^CLB_"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "model", "bundle.yaml"), cfg.Bundle)
	assert.Equal(t, "/abs/part.rdsexp", cfg.Part)
	assert.Equal(t, filepath.Join(dir, "stubs.rdv"), cfg.Stubs)
	assert.Equal(t, policy.Spec{Mode: policy.ModeFailOn, Categories: []string{"UNCLAIMED PIP"}}, cfg.Policy)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.ShouldPrint(diag.Diagnostic{Category: diag.UnclaimedPip, Tile: "CLB_X0Y0"}))
	assert.False(t, cfg.ShouldPrint(diag.Diagnostic{Category: diag.UnclaimedPip, Tile: "INT_X0Y0"}))
	assert.False(t, cfg.ShouldPrint(diag.Diagnostic{Category: diag.UnclaimedSite, Tile: "CLB_X0Y0"}))
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "bundle: a.yaml\npart: a.rdsexp\n")
	t.Setenv("RDVERIFY_PART", "/env/part.rdsexp")
	t.Setenv("RDVERIFY_POLICY", "rego")
	t.Setenv("RDVERIFY_VERBOSE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "a.yaml"), cfg.Bundle)
	assert.Equal(t, "/env/part.rdsexp", cfg.Part)
	assert.Equal(t, policy.ModeRego, cfg.Policy.Mode)
	assert.True(t, cfg.Verbose)

	t.Setenv("RDVERIFY_VERBOSE", "loud")
	_, err = Load(path)
	assert.ErrorContains(t, err, "RDVERIFY_VERBOSE")
}

func TestLoadSearchPaths(t *testing.T) {
	dir := t.TempDir()
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Policy, cfg.Policy)
	assert.Empty(t, cfg.Bundle)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rdverify.yaml"), []byte("bundle: hidden.yaml\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "hidden.yaml", cfg.Bundle)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rdverify.yaml"), []byte("bundle: plain.yaml\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "plain.yaml", cfg.Bundle)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "bundle: [unterminated\n"))
	assert.ErrorContains(t, err, "config: parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"no part", Config{Bundle: "b"}, "no part"},
		{"bad mode", Config{Bundle: "b", Part: "p", Policy: policy.Spec{Mode: "strict"}}, "unknown policy mode"},
		{"bad pattern", Config{Bundle: "b", Part: "p", OnlyTilePattern: "("}, "only_tile_pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.cfg.Validate(), tt.want)
		})
	}
}
