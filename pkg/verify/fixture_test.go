package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// model is a one-tile-class abstract model under construction.
type model struct {
	t   *testing.T
	db  *intdb.IntDb
	ndb *naming.NamingDb
}

func newModel(t *testing.T) *model {
	t.Helper()
	return &model{t: t, db: intdb.New(), ndb: naming.NewDb()}
}

func (m *model) wire(name string, tag intdb.WireKindTag) intdb.TileWireCoord {
	m.t.Helper()
	id, err := m.db.AddWire(name, intdb.WireKind{Tag: tag})
	require.NoError(m.t, err)
	return intdb.TileWireCoord{Wire: id}
}

func (m *model) class(tc *intdb.TileClass) intdb.TileClassID {
	m.t.Helper()
	if tc.NumCells == 0 {
		tc.NumCells = 1
	}
	id, err := m.db.AddTileClass(tc)
	require.NoError(m.t, err)
	return id
}

func (m *model) naming(tn *naming.TileNaming) naming.TileNamingID {
	m.t.Helper()
	id, err := m.ndb.AddTileNaming(tn)
	require.NoError(m.t, err)
	return id
}

func (m *model) grid(cols, rows int) *grid.ExpandedGrid {
	return grid.New(m.db, m.ndb, cols, rows)
}

func addTile(t *testing.T, g *grid.ExpandedGrid, tile grid.Tile) grid.TileCoord {
	t.Helper()
	if tile.Cells == nil {
		tile.Cells = []grid.CellCoord{{Col: 0, Row: 0}}
	}
	id, err := g.AddTile(tile)
	require.NoError(t, err)
	return id
}

func build(t *testing.T, b *rawdump.Builder) *rawdump.Part {
	t.Helper()
	p, err := b.Build()
	require.NoError(t, err)
	return p
}

func run(part *rawdump.Part, g *grid.ExpandedGrid, pre func(*Verifier)) *diag.Collector {
	var c diag.Collector
	Verify(part, g, pre, DefaultBelHandler, nil, WithSink(&c))
	return &c
}

func fresh(part *rawdump.Part, g *grid.ExpandedGrid) (*Verifier, *diag.Collector) {
	c := &diag.Collector{}
	return New(part, g, WithSink(c)), c
}

// omuxFixture is a CLB whose OUT mux selects A or B. The physical tile has a
// third pip from C_WIRE the model does not know about.
func omuxFixture(t *testing.T) (*rawdump.Part, *grid.ExpandedGrid) {
	t.Helper()
	m := newModel(t)
	out := m.wire("OUT", intdb.WireMuxOut)
	a := m.wire("A", intdb.WireRegular)
	b := m.wire("B", intdb.WireRegular)
	cls := m.class(&intdb.TileClass{
		Name:  "CLB",
		Muxes: []intdb.Mux{{Dst: out, Srcs: []intdb.TileWireCoord{a, b}}},
	})
	tn := naming.NewTileNaming("CLB")
	tn.Wires[out] = "OMUX"
	tn.Wires[a] = "A_WIRE"
	tn.Wires[b] = "B_WIRE"
	g := m.grid(1, 1)
	addTile(t, g, grid.Tile{Class: cls, Naming: m.naming(tn), Names: []string{"CLB_X0Y0"}})

	rb := rawdump.NewBuilder("xtest", "virtex")
	rb.TileKind("CLB").
		Internal("OMUX", "A_WIRE", "B_WIRE", "C_WIRE").
		Pip("A_WIRE", "OMUX").
		Pip("B_WIRE", "OMUX").
		Pip("C_WIRE", "OMUX")
	rb.Tile(0, 0, "CLB_X0Y0", "CLB")
	return build(t, rb), g
}

// twoTiles is a part with a CLB and an INT tile sharing one node through
// CLB.OMUX and INT.IN0, plus a private wire in each.
func twoTiles(t *testing.T) *rawdump.Part {
	t.Helper()
	rb := rawdump.NewBuilder("xtest", "virtex")
	rb.TileKind("CLB").
		Internal("A", "X").
		Connected("OMUX").
		Pip("A", "OMUX").
		Site("SLICE", "SLICEL",
			rawdump.In("I", "A"),
			rawdump.Out("O", "OMUX"),
			rawdump.In("CIN", ""),
			rawdump.Out("COUT", "X"))
	rb.TileKind("INT").Internal("B").Connected("IN0")
	rb.Tile(0, 0, "INT_X0Y0", "INT")
	rb.Tile(1, 0, "CLB_X1Y0", "CLB").Site("SLICE", "SLICE_X1Y0")
	rb.Connect("CLB_X1Y0", "OMUX", "INT_X0Y0", "IN0")
	return build(t, rb)
}

func emptyGrid(t *testing.T) *grid.ExpandedGrid {
	return newModel(t).grid(1, 1)
}

func requirePanicsInvariant(t *testing.T, fn func()) *InvariantError {
	t.Helper()
	var got *InvariantError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a panic")
			e, ok := r.(*InvariantError)
			require.True(t, ok, "panic value %v is not an *InvariantError", r)
			got = e
		}()
		fn()
	}()
	return got
}
