package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
)

type fixture struct {
	g          *ExpandedGrid
	slotW      intdb.ConnSlotID
	slotE      intdb.ConnSlotID
	lh, lhw    intdb.WireSlotID
	dead, deep intdb.WireSlotID
	pass, refl intdb.ConnClassID
}

// Two cells side by side. LH_W in cell 1 passes to LH in cell 0; at the
// west edge of cell 0, LH_W reflects back to LH.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	db := intdb.New()
	f.slotW, _ = db.AddConnSlot("W")
	f.slotE, _ = db.AddConnSlot("E")
	f.lh, _ = db.AddWire("LH", intdb.WireKind{Tag: intdb.WireMuxOut})
	f.lhw, _ = db.AddWire("LH_W", intdb.Branch(f.slotW))
	f.dead, _ = db.AddWire("DEAD", intdb.Branch(f.slotE))
	f.deep, _ = db.AddWire("DEEP", intdb.Branch(f.slotW))

	var err error
	f.pass, err = db.AddConnClass(&intdb.ConnClass{
		Name: "PASS.W", Slot: f.slotW,
		Wires: []intdb.ConnWire{
			{Wire: f.lhw, Kind: intdb.Pass{Src: f.lh}},
			{Wire: f.deep, Kind: intdb.Pass{Src: f.lhw}},
		},
	})
	require.NoError(t, err)
	f.refl, err = db.AddConnClass(&intdb.ConnClass{
		Name: "TERM.W", Slot: f.slotW,
		Wires: []intdb.ConnWire{{Wire: f.lhw, Kind: intdb.Reflect{Src: f.lh}}},
	})
	require.NoError(t, err)
	hole, err := db.AddConnClass(&intdb.ConnClass{
		Name: "TERM.E", Slot: f.slotE,
		Wires: []intdb.ConnWire{{Wire: f.dead, Kind: intdb.BlackHole{}}},
	})
	require.NoError(t, err)

	f.g = New(db, naming.NewDb(), 3, 1)
	_, err = f.g.AddConnector(Connector{
		Cell: CellCoord{1, 0}, Slot: f.slotW, Class: f.pass, Naming: naming.NoNaming,
		Target: CellCoord{0, 0}, HasTarget: true,
	})
	require.NoError(t, err)
	_, err = f.g.AddConnector(Connector{
		Cell: CellCoord{0, 0}, Slot: f.slotW, Class: f.refl, Naming: naming.NoNaming,
	})
	require.NoError(t, err)
	_, err = f.g.AddConnector(Connector{
		Cell: CellCoord{1, 0}, Slot: f.slotE, Class: hole, Naming: naming.NoNaming,
	})
	require.NoError(t, err)
	return f
}

func TestResolveWire(t *testing.T) {
	f := newFixture(t)
	c0, c1, c2 := CellCoord{0, 0}, CellCoord{1, 0}, CellCoord{2, 0}

	tests := []struct {
		name string
		in   WireCoord
		want WireCoord
		ok   bool
	}{
		{"canonical", WireCoord{c1, f.lh}, WireCoord{c1, f.lh}, true},
		{"pass", WireCoord{c1, f.lhw}, WireCoord{c0, f.lh}, true},
		{"reflect", WireCoord{c0, f.lhw}, WireCoord{c0, f.lh}, true},
		{"pass then reflect", WireCoord{c1, f.deep}, WireCoord{c0, f.lh}, true},
		{"no connector", WireCoord{c2, f.lhw}, WireCoord{c2, f.lhw}, true},
		{"black hole", WireCoord{c1, f.dead}, WireCoord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.g.ResolveWire(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWireStopsAtDrivenOutput(t *testing.T) {
	f := newFixture(t)
	cn := naming.NewConnNaming("TERM.W")
	cn.WiresOut[f.lhw] = naming.ConnOutSimple{Name: "LH_W_OUT"}
	id, err := f.g.Naming.AddConnNaming(cn)
	require.NoError(t, err)
	conn, ok := f.g.Connector(CellCoord{0, 0}, f.slotW)
	require.True(t, ok)
	conn.Naming = id

	w := WireCoord{CellCoord{0, 0}, f.lhw}
	got, ok := f.g.ResolveWire(w)
	require.True(t, ok)
	assert.Equal(t, w, got)
}

func TestResolveWireExtraConnAndBlackhole(t *testing.T) {
	f := newFixture(t)
	c0, c2 := CellCoord{0, 0}, CellCoord{2, 0}
	f.g.AddExtraConn(WireCoord{c0, f.lh}, WireCoord{c2, f.lh})

	got, ok := f.g.ResolveWire(WireCoord{c0, f.lhw})
	require.True(t, ok)
	assert.Equal(t, WireCoord{c2, f.lh}, got)

	f.g.AddBlackhole(WireCoord{c2, f.lh})
	_, ok = f.g.ResolveWire(WireCoord{c2, f.lh})
	assert.False(t, ok)
}

func TestAddConnectorErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.g.AddConnector(Connector{Cell: CellCoord{1, 0}, Slot: f.slotW, Class: f.refl, Naming: naming.NoNaming})
	assert.Error(t, err, "duplicate slot")

	_, err = f.g.AddConnector(Connector{Cell: CellCoord{2, 0}, Slot: f.slotW, Class: f.pass, Naming: naming.NoNaming})
	assert.Error(t, err, "pass without target")

	_, err = f.g.AddConnector(Connector{Cell: CellCoord{5, 0}, Slot: f.slotW, Class: f.refl, Naming: naming.NoNaming})
	assert.Error(t, err, "outside grid")
}

func TestAddTile(t *testing.T) {
	f := newFixture(t)
	tcid, err := f.g.DB.AddTileClass(&intdb.TileClass{
		Name: "CLB", NumCells: 1,
		Bels: []intdb.Bel{{Name: "SLICE0"}, {Name: "SLICE1"}},
	})
	require.NoError(t, err)

	_, err = f.g.AddTile(Tile{Class: tcid, Naming: naming.NoNaming})
	assert.Error(t, err, "wrong cell count")

	id, err := f.g.AddTile(Tile{Class: tcid, Cells: []CellCoord{{1, 0}}, Naming: naming.NoNaming, BelNames: []string{"SLICE_X0Y0"}})
	require.NoError(t, err)
	assert.Equal(t, []TileCoord{id}, f.g.TilesAt(CellCoord{1, 0}))
	assert.Equal(t, []string{"SLICE_X0Y0", ""}, f.g.Tiles[id].BelNames)
	assert.Nil(t, f.g.TileNaming(id))
	assert.Equal(t, WireCoord{CellCoord{1, 0}, f.lh}, f.g.TileWire(id, intdb.TileWireCoord{Cell: 0, Wire: f.lh}))
}

func TestParseWire(t *testing.T) {
	f := newFixture(t)
	w, ok := f.g.ParseWire("C1R0.LH")
	require.True(t, ok)
	assert.Equal(t, WireCoord{Cell: CellCoord{1, 0}, Wire: f.lh}, w)

	for _, ref := range []string{"LH", "C9R0.LH", "C0R0.NOPE", "C0R0x.LH", "c0r0.LH"} {
		_, ok := f.g.ParseWire(ref)
		assert.False(t, ok, ref)
	}
}
