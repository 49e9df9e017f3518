package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
)

const demo = "../../../examples/clb-demo"

// Absolute, since execute changes into a scratch directory.
var (
	demoBundle = mustAbs(filepath.Join(demo, "bundle.yaml"))
	demoPart   = mustAbs(filepath.Join(demo, "part.rdsexp"))
	demoStubs  = mustAbs(filepath.Join(demo, "stubs.rdv"))
)

func mustAbs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		panic(err)
	}
	return a
}

var demoResidue = []string{
	"UNCLAIMED PIP xdemo CLB_X0Y0 OMUX <- C_WIRE",
	"UNCLAIMED PIP xdemo CLB_X0Y0 TEST_TAP <- OMUX",
	"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 C_WIRE",
	"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 TEST_TAP",
}

// resetFlags puts every flag back to its default so runs do not leak into
// each other.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				sv.Replace(nil)
			} else {
				f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVerifyE2E(t *testing.T) {
	bundle, part, stubs := demoBundle, demoPart, demoStubs

	tests := []struct {
		name        string
		args        []string
		wantContain []string
		wantMissing []string
		wantExit    int
	}{
		{
			name:        "residue without stubs",
			args:        []string{"verify", "--bundle", bundle, "--part", part},
			wantContain: append([]string{"xdemo: 4 diagnostics (4 errors, 0 info)"}, demoResidue...),
		},
		{
			name:        "clean with stubs",
			args:        []string{"verify", "--bundle", bundle, "--part", part, "--stubs", stubs},
			wantContain: []string{"xdemo: 0 diagnostics"},
			wantMissing: []string{"UNCLAIMED"},
		},
		{
			name:     "fail on any error",
			args:     []string{"verify", "--bundle", bundle, "--part", part, "--fail-on", "*"},
			wantExit: 2,
		},
		{
			name:        "fail on an absent category",
			args:        []string{"verify", "--bundle", bundle, "--part", part, "--fail-on", "MISSING PIP"},
			wantContain: []string{"xdemo: 4 diagnostics"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)
			if tt.wantExit != 0 {
				var exit *ExitError
				require.True(t, errors.As(err, &exit), "got %v", err)
				assert.Equal(t, tt.wantExit, exit.Code)
				assert.Contains(t, exit.Msg, "2 x UNCLAIMED PIP")
				return
			}
			require.NoError(t, err, output)
			for _, want := range tt.wantContain {
				assert.Contains(t, output, want)
			}
			for _, bad := range tt.wantMissing {
				assert.NotContains(t, output, bad)
			}
		})
	}
}

func TestVerifyRegoE2E(t *testing.T) {
	module := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(module, []byte(`package rdverify

import rego.v1

fail if count(input.diagnostics) > 3

deny contains sprintf("%d residual wires", [count(wires)]) if {
	wires := [d | some d in input.diagnostics; d.category == "UNCLAIMED INTERNAL WIRE"]
	count(wires) > 0
}
`), 0o644))

	_, err := execute(t, "verify", "--bundle", demoBundle, "--part", demoPart, "--rego", module)
	var exit *ExitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 2, exit.Code)
	assert.Contains(t, exit.Msg, "2 residual wires")

	_, err = execute(t, "verify", "--bundle", demoBundle, "--part", demoPart, "--stubs", demoStubs, "--rego", module)
	require.NoError(t, err)
}

func TestVerifyReportE2E(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.json")
	_, err := execute(t, "verify", "--bundle", demoBundle, "--part", demoPart, "--report", report)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var r diag.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "xdemo", r.Part)
	assert.Equal(t, 4, r.Summary.Total)
	assert.Equal(t, 2, r.Summary.Count(diag.UnclaimedPip))
}

func TestVerifyConfigE2E(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
bundle: `+demoBundle+`
part: `+demoPart+`
hide_categories: ["UNCLAIMED PIP"]
policy:
  mode: fail-on
  categories: ["MISSING PIP"]
`), 0o644))

	output, err := execute(t, "verify", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, output, "UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 C_WIRE")
	assert.NotContains(t, output, "UNCLAIMED PIP")
	assert.Contains(t, output, "xdemo: 4 diagnostics")
}

func TestBaselineE2E(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	bundle, part := demoBundle, demoPart

	output, err := execute(t, "verify", "--bundle", bundle, "--part", part, "--baseline", db)
	require.NoError(t, err)
	assert.Contains(t, output, "saved run")
	assert.NotContains(t, output, "since")

	output, err = execute(t, "verify", "--bundle", bundle, "--part", part, "--stubs", demoStubs, "--baseline", db)
	require.NoError(t, err)
	assert.Contains(t, output, "+0 -4")
	assert.Contains(t, output, "- UNCLAIMED PIP xdemo CLB_X0Y0 OMUX <- C_WIRE")

	output, err = execute(t, "baseline", "list", "--db", db, "--part", "xdemo")
	require.NoError(t, err)
	assert.Contains(t, output, "2 run(s) of xdemo")
	assert.Contains(t, output, "4 diagnostics")
	assert.Contains(t, output, "0 diagnostics")

	output, err = execute(t, "baseline", "diff", "--db", db, "--part", "xdemo")
	require.NoError(t, err)
	assert.Contains(t, output, "+0 -4")

	_, err = execute(t, "baseline", "diff", "--db", db, "--part", "xdemo", "only-one")
	assert.Error(t, err)

	_, err = execute(t, "baseline", "diff", "--db", db, "--part", "other")
	assert.ErrorContains(t, err, "need two runs")
}

func TestCheckE2E(t *testing.T) {
	output, err := execute(t, "check", "--bundle", demoBundle, "--part", demoPart, "--stubs", demoStubs)
	require.NoError(t, err)
	for _, want := range []string{"Tile classes: 1", "Part: xdemo", "Tiles:        2", "Stubs:", "OK"} {
		assert.Contains(t, output, want)
	}

	bad := filepath.Join(t.TempDir(), "bad.rdv")
	require.NoError(t, os.WriteFile(bad, []byte(`vcc "CLB_X9Y9" "A_WIRE";`), 0o644))
	_, err = execute(t, "check", "--bundle", demoBundle, "--part", demoPart, "--stubs", bad)
	assert.ErrorContains(t, err, `unknown tile "CLB_X9Y9"`)
}

func TestVerifyBadStubsE2E(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.rdv")
	require.NoError(t, os.WriteFile(bad, []byte(`alias slot "NOPE" -> "A";`), 0o644))
	output, err := execute(t, "verify", "--bundle", demoBundle, "--part", demoPart, "--stubs", bad)
	assert.ErrorContains(t, err, "failed to apply stubs")
	assert.NotContains(t, output, "UNCLAIMED")
	assert.NotContains(t, output, "diagnostics")
}

func TestStubsE2E(t *testing.T) {
	output, err := execute(t, "stubs", demoStubs)
	require.NoError(t, err)
	assert.Equal(t, "stub out \"TEST_TAP\";\nstub in cond \"C_WIRE\";\n", output)

	bad := filepath.Join(t.TempDir(), "bad.rdv")
	require.NoError(t, os.WriteFile(bad, []byte(`stub out "A"`), 0o644))
	_, err = execute(t, "stubs", bad)
	assert.ErrorContains(t, err, "failed to parse file")
}

func TestInputErrorsE2E(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no part", []string{"verify", "--bundle", demoBundle}, "no part given"},
		{"missing bundle", []string{"verify", "--bundle", "nope.yaml", "--part", demoPart}, "failed to load bundle"},
		{"missing part", []string{"check", "--bundle", demoBundle, "--part", "nope.rdsexp"}, "failed to load part"},
		{"missing config", []string{"verify", "-c", "nope.yaml"}, "failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
