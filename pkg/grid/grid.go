// Package grid instantiates tile and connector classes over a cell array and
// resolves abstract wires to their canonical cell.
package grid

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
)

// CellCoord is a column/row position in the cell array.
type CellCoord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (c CellCoord) String() string {
	return fmt.Sprintf("C%dR%d", c.Col, c.Row)
}

// WireCoord is an abstract wire instance.
type WireCoord struct {
	Cell CellCoord
	Wire intdb.WireSlotID
}

// TileCoord indexes ExpandedGrid.Tiles.
type TileCoord int

// ConnectorCoord indexes ExpandedGrid.Connectors.
type ConnectorCoord int

// Tile is one placed tile class. Cells[0] is the anchor cell. Names holds
// the raw tile name per naming.RawTileID. BelNames and IriNames hold site
// instance names; an empty name means the site is absent.
type Tile struct {
	Class      intdb.TileClassID
	Cells      []CellCoord
	Naming     naming.TileNamingID
	Names      []string
	TieName    string
	TieRawTile naming.RawTileID
	BelNames   []string
	IriNames   []string
}

// Connector is a placed connector class. Target is meaningful when HasTarget
// is set. Tile and TileFar are raw tile names; empty when not applicable.
type Connector struct {
	Cell      CellCoord
	Slot      intdb.ConnSlotID
	Class     intdb.ConnClassID
	Naming    naming.ConnNamingID
	Target    CellCoord
	HasTarget bool
	Tile      string
	TileFar   string
}

type connKey struct {
	cell CellCoord
	slot intdb.ConnSlotID
}

// ExpandedGrid is a single-die device instance.
type ExpandedGrid struct {
	DB     *intdb.IntDb
	Naming *naming.NamingDb
	Cols   int
	Rows   int

	Tiles      []Tile
	Connectors []Connector

	// Site pin names and kind of the constant-source site.
	TiePinGnd    string
	TiePinVcc    string
	TiePinPullup string
	TieKind      string

	conns      map[connKey]ConnectorCoord
	tilesAt    map[CellCoord][]TileCoord
	extraConns map[WireCoord]WireCoord
	blackholes map[WireCoord]bool
}

// New returns an empty grid of cols x rows cells.
func New(db *intdb.IntDb, ndb *naming.NamingDb, cols, rows int) *ExpandedGrid {
	return &ExpandedGrid{
		DB:         db,
		Naming:     ndb,
		Cols:       cols,
		Rows:       rows,
		conns:      make(map[connKey]ConnectorCoord),
		tilesAt:    make(map[CellCoord][]TileCoord),
		extraConns: make(map[WireCoord]WireCoord),
		blackholes: make(map[WireCoord]bool),
	}
}

// Contains reports whether c is inside the cell array.
func (g *ExpandedGrid) Contains(c CellCoord) bool {
	return c.Col >= 0 && c.Row >= 0 && c.Col < g.Cols && c.Row < g.Rows
}

// AddTile places a tile.
func (g *ExpandedGrid) AddTile(t Tile) (TileCoord, error) {
	if int(t.Class) < 0 || int(t.Class) >= len(g.DB.TileClasses) {
		return 0, fmt.Errorf("grid: unknown tile class %d", t.Class)
	}
	tc := g.DB.TileClasses[t.Class]
	if len(t.Cells) != tc.NumCells {
		return 0, fmt.Errorf("grid: tile class %s needs %d cells, got %d", tc.Name, tc.NumCells, len(t.Cells))
	}
	for _, c := range t.Cells {
		if !g.Contains(c) {
			return 0, fmt.Errorf("grid: tile class %s: cell %s outside grid", tc.Name, c)
		}
	}
	if t.Naming != naming.NoNaming && (int(t.Naming) < 0 || int(t.Naming) >= len(g.Naming.TileNamings)) {
		return 0, fmt.Errorf("grid: tile class %s: unknown naming %d", tc.Name, t.Naming)
	}
	for len(t.BelNames) < len(tc.Bels) {
		t.BelNames = append(t.BelNames, "")
	}
	id := TileCoord(len(g.Tiles))
	g.Tiles = append(g.Tiles, t)
	g.tilesAt[t.Cells[0]] = append(g.tilesAt[t.Cells[0]], id)
	return id, nil
}

// AddConnector places a connector. A cell holds at most one connector per
// slot.
func (g *ExpandedGrid) AddConnector(c Connector) (ConnectorCoord, error) {
	if int(c.Class) < 0 || int(c.Class) >= len(g.DB.ConnClasses) {
		return 0, fmt.Errorf("grid: unknown connector class %d", c.Class)
	}
	if !g.Contains(c.Cell) {
		return 0, fmt.Errorf("grid: connector at %s outside grid", c.Cell)
	}
	if c.HasTarget && !g.Contains(c.Target) {
		return 0, fmt.Errorf("grid: connector at %s targets %s outside grid", c.Cell, c.Target)
	}
	key := connKey{cell: c.Cell, slot: c.Slot}
	if _, dup := g.conns[key]; dup {
		return 0, fmt.Errorf("grid: duplicate connector in slot %s at %s", g.DB.ConnSlots[c.Slot], c.Cell)
	}
	cc := g.DB.ConnClasses[c.Class]
	if !c.HasTarget {
		for _, cw := range cc.Wires {
			if _, ok := cw.Kind.(intdb.Pass); ok {
				return 0, fmt.Errorf("grid: connector %s at %s passes wires but has no target", cc.Name, c.Cell)
			}
		}
	}
	id := ConnectorCoord(len(g.Connectors))
	g.Connectors = append(g.Connectors, c)
	g.conns[key] = id
	return id, nil
}

// AddExtraConn joins a resolved wire to another canonical wire.
func (g *ExpandedGrid) AddExtraConn(from, to WireCoord) {
	g.extraConns[from] = to
}

// AddBlackhole marks a resolved wire as leading nowhere.
func (g *ExpandedGrid) AddBlackhole(w WireCoord) {
	g.blackholes[w] = true
}

// Connector returns the connector in slot of cell.
func (g *ExpandedGrid) Connector(cell CellCoord, slot intdb.ConnSlotID) (*Connector, bool) {
	id, ok := g.conns[connKey{cell: cell, slot: slot}]
	if !ok {
		return nil, false
	}
	return &g.Connectors[id], true
}

// TilesAt returns the tiles anchored at cell, in placement order.
func (g *ExpandedGrid) TilesAt(cell CellCoord) []TileCoord {
	return g.tilesAt[cell]
}

// ParseWire reads a wire reference in the "C<col>R<row>.<wire>" form
// diagnostics print. The cell must lie inside the grid.
func (g *ExpandedGrid) ParseWire(ref string) (WireCoord, bool) {
	cell, name, ok := strings.Cut(ref, ".")
	if !ok {
		return WireCoord{}, false
	}
	var c CellCoord
	if _, err := fmt.Sscanf(cell, "C%dR%d", &c.Col, &c.Row); err != nil || c.String() != cell {
		return WireCoord{}, false
	}
	if !g.Contains(c) {
		return WireCoord{}, false
	}
	w, ok := g.DB.WireByName(name)
	if !ok {
		return WireCoord{}, false
	}
	return WireCoord{Cell: c, Wire: w}, true
}

// TileWire translates a tile-relative wire to a grid wire.
func (g *ExpandedGrid) TileWire(tc TileCoord, tw intdb.TileWireCoord) WireCoord {
	return WireCoord{Cell: g.Tiles[tc].Cells[tw.Cell], Wire: tw.Wire}
}

// TileNaming returns the naming of a tile, or nil.
func (g *ExpandedGrid) TileNaming(tc TileCoord) *naming.TileNaming {
	n := g.Tiles[tc].Naming
	if n == naming.NoNaming {
		return nil
	}
	return g.Naming.TileNamings[n]
}

// ConnNaming returns the naming of a connector, or nil.
func (g *ExpandedGrid) ConnNaming(cc ConnectorCoord) *naming.ConnNaming {
	n := g.Connectors[cc].Naming
	if n == naming.NoNaming {
		return nil
	}
	return g.Naming.ConnNamings[n]
}

// ResolveWire follows branch wires through connectors until the wire reaches
// its canonical cell. A wire stops at a connector whose naming names it as
// an output, since that connector drives it. The result is false when the
// wire ends in a black hole.
func (g *ExpandedGrid) ResolveWire(w WireCoord) (WireCoord, bool) {
	for steps := 0; ; steps++ {
		if steps > len(g.Connectors)*len(g.DB.Wires)+1 {
			panic(fmt.Sprintf("grid: wire %s at %s loops through connectors", g.DB.Wires[w.Wire].Name, w.Cell))
		}
		kind := g.DB.Wires[w.Wire].Kind
		if kind.Tag != intdb.WireBranch {
			break
		}
		cid, ok := g.conns[connKey{cell: w.Cell, slot: kind.Conn}]
		if !ok {
			break
		}
		conn := &g.Connectors[cid]
		cw, ok := g.DB.ConnClasses[conn.Class].Lookup(w.Wire)
		if !ok {
			break
		}
		if _, hole := cw.(intdb.BlackHole); hole {
			return WireCoord{}, false
		}
		if cn := g.ConnNaming(cid); cn != nil {
			if _, drives := cn.WiresOut[w.Wire]; drives {
				break
			}
		}
		switch cw := cw.(type) {
		case intdb.Reflect:
			w.Wire = cw.Src
		case intdb.Pass:
			w = WireCoord{Cell: conn.Target, Wire: cw.Src}
		}
	}
	if to, ok := g.extraConns[w]; ok {
		w = to
	}
	if g.blackholes[w] {
		return WireCoord{}, false
	}
	return w, true
}
