package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

type connCase struct {
	name    string
	reflect bool
	out     naming.ConnWireOutNaming
	far     naming.ConnWireInFarNaming
	tileFar string
	// used adds a routing tile to both cells that reads LH_E and drives LH.
	used  bool
	build func(rb *rawdump.Builder)
	want  []string
}

// connFixture places a connector in slot E of cell 0 whose output LH_E is
// fed from LH, either in the same cell or passed from cell 1.
func connFixture(t *testing.T, tc connCase) (*rawdump.Part, *grid.ExpandedGrid) {
	t.Helper()
	m := newModel(t)
	slot, err := m.db.AddConnSlot("E")
	require.NoError(t, err)
	lh := m.wire("LH", intdb.WireRegular)
	lheID, err := m.db.AddWire("LH_E", intdb.Branch(slot))
	require.NoError(t, err)
	lhe := intdb.TileWireCoord{Wire: lheID}

	var kind intdb.ConnectorWire = intdb.Pass{Src: lh.Wire}
	if tc.reflect {
		kind = intdb.Reflect{Src: lh.Wire}
	}
	cls, err := m.db.AddConnClass(&intdb.ConnClass{
		Name:  "TERM.E",
		Slot:  slot,
		Wires: []intdb.ConnWire{{Wire: lheID, Kind: kind}},
	})
	require.NoError(t, err)
	cn := naming.NewConnNaming("TERM.E")
	cn.WiresOut[lheID] = tc.out
	if tc.reflect {
		cn.WiresInNear[lh.Wire] = "LH_NEAR"
	} else if tc.far != nil {
		cn.WiresInFar[lh.Wire] = tc.far
	}
	cnid, err := m.ndb.AddConnNaming(cn)
	require.NoError(t, err)

	g := m.grid(2, 1)
	if tc.used {
		y := m.wire("Y", intdb.WireRegular)
		x := m.wire("X", intdb.WireRegular)
		intc := m.class(&intdb.TileClass{
			Name: "INT",
			Muxes: []intdb.Mux{
				{Dst: lh, Srcs: []intdb.TileWireCoord{y}},
				{Dst: x, Srcs: []intdb.TileWireCoord{lhe}},
			},
		})
		for col := 0; col < 2; col++ {
			addTile(t, g, grid.Tile{
				Class:  intc,
				Cells:  []grid.CellCoord{{Col: col}},
				Naming: naming.NoNaming,
			})
		}
	}
	_, err = g.AddConnector(grid.Connector{
		Cell:      grid.CellCoord{Col: 0},
		Slot:      slot,
		Class:     cls,
		Naming:    cnid,
		Target:    grid.CellCoord{Col: 1},
		HasTarget: true,
		Tile:      "TERM_X0Y0",
		TileFar:   tc.tileFar,
	})
	require.NoError(t, err)

	rb := rawdump.NewBuilder("xtest", "virtex")
	tc.build(rb)
	return build(t, rb), g
}

func termKind(wires ...string) func(rb *rawdump.Builder) {
	return func(rb *rawdump.Builder) {
		kb := rb.TileKind("TERM").Internal(wires...)
		for i := 1; i < len(wires); i++ {
			kb.Pip(wires[i], wires[0])
		}
		rb.Tile(0, 0, "TERM_X0Y0", "TERM")
	}
}

func farBufFar(withIn bool) func(rb *rawdump.Builder) {
	return func(rb *rawdump.Builder) {
		rb.TileKind("TERM").
			Internal("LH_E_OUT").
			Connected("LH_FAR").
			Pip("LH_FAR", "LH_E_OUT")
		kb := rb.TileKind("PASS").Connected("LH_FO")
		if withIn {
			kb.Internal("LH_FI").Pip("LH_FI", "LH_FO")
		}
		rb.Tile(0, 0, "TERM_X0Y0", "TERM")
		rb.Tile(1, 0, "PASS_X1Y0", "PASS")
		rb.Connect("TERM_X0Y0", "LH_FAR", "PASS_X1Y0", "LH_FO")
	}
}

func TestVerifyConnectorKinds(t *testing.T) {
	simple := naming.ConnOutSimple{Name: "LH_E_OUT"}
	farBuf := naming.ConnFarBuf{Name: "LH_FAR", NameIn: "LH_FAR_IN"}
	bufFar := naming.ConnFarBufFar{Name: "LH_FAR", NameFarOut: "LH_FO", NameFarIn: "LH_FI"}
	tests := []connCase{
		{
			name:    "reflect",
			reflect: true,
			out:     simple,
			build:   termKind("LH_E_OUT", "LH_NEAR"),
		},
		{
			name:  "buffered output",
			out:   naming.ConnOutBuf{NameOut: "LH_E_OUT", NameIn: "LH_E_IN"},
			build: termKind("LH_E_OUT", "LH_E_IN"),
		},
		{
			name: "far input buffered near",
			out:  simple,
			far:  farBuf,
			build: func(rb *rawdump.Builder) {
				rb.TileKind("TERM").
					Internal("LH_E_OUT", "LH_FAR", "LH_FAR_IN").
					Pip("LH_FAR", "LH_E_OUT").
					Pip("LH_FAR_IN", "LH_FAR")
				rb.Tile(0, 0, "TERM_X0Y0", "TERM")
			},
		},
		{
			name:    "far input buffered in the far tile",
			out:     simple,
			far:     bufFar,
			tileFar: "PASS_X1Y0",
			build:   farBufFar(true),
		},
		{
			name:    "reflect source missing, output unread",
			reflect: true,
			out:     simple,
			build:   termKind("LH_E_OUT"),
		},
		{
			name:    "reflect source missing",
			reflect: true,
			out:     simple,
			used:    true,
			build:   termKind("LH_E_OUT"),
			want:    []string{"MISSING TERM PIP xtest TERM_X0Y0 LH_E"},
		},
		{
			name:  "buffered output source missing",
			out:   naming.ConnOutBuf{NameOut: "LH_E_OUT", NameIn: "LH_E_IN"},
			used:  true,
			build: termKind("LH_E_OUT"),
			want:  []string{"MISSING TERM PIP xtest TERM_X0Y0 LH_E"},
		},
		{
			name: "far buffer input missing",
			out:  simple,
			far:  farBuf,
			used: true,
			build: func(rb *rawdump.Builder) {
				rb.TileKind("TERM").
					Internal("LH_E_OUT", "LH_FAR").
					Pip("LH_FAR", "LH_E_OUT")
				rb.Tile(0, 0, "TERM_X0Y0", "TERM")
			},
			want: []string{"MISSING TERM PIP xtest TERM_X0Y0 LH_E"},
		},
		{
			name:    "far tile buffer input missing",
			out:     simple,
			far:     bufFar,
			tileFar: "PASS_X1Y0",
			used:    true,
			build:   farBufFar(false),
			want:    []string{"MISSING TERM PIP xtest TERM_X0Y0 LH_E"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			part, g := connFixture(t, tt)
			var pre func(*Verifier)
			if tt.want != nil || tt.used {
				pre = func(v *Verifier) { v.SkipResidual() }
			}
			requireLines(t, run(part, g, pre), tt.want...)
		})
	}
}

func TestVerifyConnectorFarBufferWithoutFarTile(t *testing.T) {
	part, g := connFixture(t, connCase{
		out:   naming.ConnOutSimple{Name: "LH_E_OUT"},
		far:   naming.ConnFarBufFar{Name: "LH_FAR", NameFarOut: "LH_FO", NameFarIn: "LH_FI"},
		build: farBufFar(true),
	})
	e := requirePanicsInvariant(t, func() { run(part, g, nil) })
	require.Equal(t, "TERM_X0Y0", e.Tile)
}
