package stubcfg

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/bundle"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump/rdsexp"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/verify"
)

const (
	demoBundle = "../../examples/clb-demo/bundle.yaml"
	demoPart   = "../../examples/clb-demo/part.rdsexp"
	demoStubs  = "../../examples/clb-demo/stubs.rdv"
)

func parse(t *testing.T, input string) *File {
	t.Helper()
	p, err := NewParser()
	require.NoError(t, err)
	f, err := p.ParseString("test.rdv", input)
	require.NoError(t, err)
	return f
}

func TestParseStatements(t *testing.T) {
	f := parse(t, `
		# comment
		stub out "A";
		stub in "B"; // trailing
		stub out cond "C";
		stub in cond "D" tilekind "CLB";
		vcc "INT_X0Y0" "VCC_WIRE";
		alias slot "LH" -> "LH_E";
		alias intf "C0R0.A" -> "C1R0.LH";
		skip residual pips;
		skip residual all;
		skip pin "SLICE" "CIN";
		skip pip "CLB" "OUT" "B";
		inject pip "CLB" "0.OUT" "0.A";
	`)
	require.Len(t, f.Stmts, 12)

	assert.Equal(t, &Stub{Dir: "out", Wire: "A"}, f.Stmts[0].Stub)
	assert.Equal(t, &Stub{Dir: "in", Wire: "B"}, f.Stmts[1].Stub)
	assert.Equal(t, &Stub{Dir: "out", Cond: true, Wire: "C"}, f.Stmts[2].Stub)
	assert.Equal(t, &Stub{Dir: "in", Cond: true, Wire: "D", TileKind: "CLB"}, f.Stmts[3].Stub)
	assert.Equal(t, &Vcc{Tile: "INT_X0Y0", Wire: "VCC_WIRE"}, f.Stmts[4].Vcc)
	assert.Equal(t, &Alias{Kind: "slot", From: "LH", To: "LH_E"}, f.Stmts[5].Alias)
	assert.Equal(t, &Alias{Kind: "intf", From: "C0R0.A", To: "C1R0.LH"}, f.Stmts[6].Alias)
	assert.Equal(t, &SkipResidual{What: "pips"}, f.Stmts[7].Residual)
	assert.Equal(t, &SkipResidual{What: "all"}, f.Stmts[8].Residual)
	assert.Equal(t, &SkipPin{Bel: "SLICE", Pin: "CIN"}, f.Stmts[9].Pin)
	assert.Equal(t, &ClassPip{Op: "skip", Class: "CLB", Dst: "OUT", Src: "B"}, f.Stmts[10].ClassPip)
	assert.Equal(t, &ClassPip{Op: "inject", Class: "CLB", Dst: "0.OUT", Src: "0.A"}, f.Stmts[11].ClassPip)

	assert.Equal(t, 4, f.Stmts[1].Pos.Line)
}

func TestStringRoundTrip(t *testing.T) {
	src := `stub out "A";
stub in cond "D" tilekind "CLB";
vcc "T" "W";
alias slot "LH" -> "LH_E";
alias intf "C0R0.A" -> "C0R0.B";
skip residual sites;
skip pin "SLICE" "CIN";
inject pip "CLB" "OUT" "A";
`
	f := parse(t, src)
	assert.Equal(t, src, f.String())

	again := parse(t, f.String())
	if diff := cmp.Diff(f.String(), again.String()); diff != "" {
		t.Errorf("canonical form not stable (-first +second):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing semicolon", `stub out "A"`, "parse error"},
		{"unknown direction", `stub sideways "A";`, "parse error"},
		{"unknown residual", `skip residual bels;`, "parse error"},
		{"unknown alias kind", `alias wire "A" -> "B";`, "parse error"},
		{"bare word wire", `stub out A;`, "parse error"},
		{"tilekind on stub out", `stub out cond "A" tilekind "CLB";`, "tilekind only applies"},
		{"tilekind without cond", "\nstub in \"A\" tilekind \"CLB\";", "test.rdv:2:1"},
	}
	p, err := NewParser()
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseString("test.rdv", tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile(demoStubs)
	require.NoError(t, err)
	assert.Equal(t, "stub out \"TEST_TAP\";\nstub in cond \"C_WIRE\";\n", f.String())

	_, err = ParseFile("testdata/nope.rdv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}

// runDemo verifies the demo part with f applied before classification.
func runDemo(t *testing.T, f *File) []string {
	t.Helper()
	b, err := bundle.LoadFile(demoBundle)
	require.NoError(t, err)
	part, err := rdsexp.LoadFile(demoPart)
	require.NoError(t, err)

	var c diag.Collector
	var applyErr error
	verify.Verify(part, b.Grid, func(v *verify.Verifier) {
		if f != nil {
			applyErr = f.Apply(v)
		}
	}, verify.DefaultBelHandler, nil, verify.WithSink(&c))
	require.NoError(t, applyErr)
	return c.Lines()
}

func TestApplyDemo(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"UNCLAIMED PIP xdemo CLB_X0Y0 OMUX <- C_WIRE",
		"UNCLAIMED PIP xdemo CLB_X0Y0 TEST_TAP <- OMUX",
		"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 C_WIRE",
		"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 TEST_TAP",
	}, runDemo(t, nil))

	f, err := ParseFile(demoStubs)
	require.NoError(t, err)
	assert.Empty(t, runDemo(t, f))
}

func TestApplyStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "stub scoped to the tile kind",
			input: `stub out "TEST_TAP"; stub in cond "C_WIRE" tilekind "CLB";`,
		},
		{
			name:  "stub scoped to another tile kind",
			input: `stub out "TEST_TAP"; stub in cond "C_WIRE" tilekind "IOB";`,
			want: []string{
				"UNCLAIMED PIP xdemo CLB_X0Y0 OMUX <- C_WIRE",
				"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 C_WIRE",
			},
		},
		{
			name:  "vcc claims the wire but not its pips",
			input: `stub out "TEST_TAP"; vcc "CLB_X0Y0" "C_WIRE";`,
			want:  []string{"UNCLAIMED PIP xdemo CLB_X0Y0 OMUX <- C_WIRE"},
		},
		{
			name:  "skip all residuals",
			input: `skip residual all;`,
		},
		{
			name:  "skip residual pips",
			input: `skip residual pips;`,
			want: []string{
				"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 C_WIRE",
				"UNCLAIMED INTERNAL WIRE xdemo CLB_X0Y0 TEST_TAP",
			},
		},
		{
			name:  "injected duplicate edge is walked once",
			input: `stub out "TEST_TAP"; stub in cond "C_WIRE"; inject pip "CLB" "OUT" "A";`,
		},
		{
			name:  "unknown stub names are ignored",
			input: `stub out "TEST_TAP"; stub in cond "C_WIRE"; stub in "NOT_IN_THIS_PART";`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runDemo(t, parse(t, tt.input))
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"vcc in unknown tile", `vcc "CLB_X7Y7" "A_WIRE";`, `unknown tile "CLB_X7Y7"`},
		{"alias from unknown slot", `alias slot "NOPE" -> "A";`, `unknown wire slot "NOPE"`},
		{"alias to unknown slot", `alias slot "A" -> "NOPE";`, `unknown wire slot "NOPE"`},
		{"intf alias without a cell", `alias intf "A" -> "C0R0.B";`, `unknown wire "A"`},
		{"intf alias outside the grid", `alias intf "C0R0.A" -> "C5R0.B";`, `unknown wire "C5R0.B"`},
		{"pip in unknown class", `skip pip "IOB" "OUT" "A";`, `unknown tile class "IOB"`},
		{"pip to unknown wire", `skip pip "CLB" "NOPE" "A";`, `unknown wire "NOPE"`},
		{"pip from unknown wire", `inject pip "CLB" "OUT" "NOPE";`, `unknown wire "NOPE"`},
	}
	b, err := bundle.LoadFile(demoBundle)
	require.NoError(t, err)
	part, err := rdsexp.LoadFile(demoPart)
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parse(t, "\n"+tt.input)
			v := verify.New(part, b.Grid, verify.WithSink(&diag.Collector{}))
			err := f.Apply(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, strings.HasPrefix(err.Error(), "test.rdv:2:1: "), err.Error())
		})
	}
}

func TestApplyIntfAlias(t *testing.T) {
	b, err := bundle.LoadFile(demoBundle)
	require.NoError(t, err)
	part, err := rdsexp.LoadFile(demoPart)
	require.NoError(t, err)
	crd, ok := part.TileByName("CLB_X0Y0")
	require.True(t, ok)
	a, ok := b.Grid.ParseWire("C0R0.A")
	require.True(t, ok)

	pinTwice := func(input string) []string {
		var c diag.Collector
		v := verify.New(part, b.Grid, verify.WithSink(&c))
		require.NoError(t, parse(t, input).Apply(v))
		v.PinIntfWire(verify.RawWire{Crd: crd, Name: "A_WIRE"}, a)
		v.PinIntfWire(verify.RawWire{Crd: crd, Name: "B_WIRE"}, a)
		return c.Lines()
	}
	assert.Equal(t, []string{"INT INTF NODE MISMATCH xdemo CLB_X0Y0 B_WIRE C0R0.A"}, pinTwice(`skip residual all;`))
	assert.Empty(t, pinTwice(`alias intf "C0R0.A" -> "C0R0.B";`))
}
