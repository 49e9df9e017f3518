package rawdump

import "sort"

// Part is the physical model of one device.
type Part struct {
	Name      string
	Family    string
	TileKinds []*TileKind
	NodeCount int

	wires     []string
	wireIndex map[string]WireID
	kindIndex map[string]TileKindID
	tiles     map[Coord]*Tile
	tileOrder []Coord
	tileNames map[string]Coord
}

// WireName returns the name of an interned wire.
func (p *Part) WireName(w WireID) string {
	if w < 0 || int(w) >= len(p.wires) {
		return ""
	}
	return p.wires[w]
}

// WireByName returns the interned id of a wire name.
func (p *Part) WireByName(name string) (WireID, bool) {
	w, ok := p.wireIndex[name]
	return w, ok
}

// WireCount returns the number of interned wire names.
func (p *Part) WireCount() int {
	return len(p.wires)
}

// TileKind returns the tile kind with the given id.
func (p *Part) TileKind(id TileKindID) *TileKind {
	return p.TileKinds[id]
}

// TileKindByName looks a tile kind up by name.
func (p *Part) TileKindByName(name string) (TileKindID, bool) {
	id, ok := p.kindIndex[name]
	return id, ok
}

// Tile returns the tile at crd, or nil.
func (p *Part) Tile(crd Coord) *Tile {
	return p.tiles[crd]
}

// TileByName returns the coordinate of the tile with the given name.
func (p *Part) TileByName(name string) (Coord, bool) {
	crd, ok := p.tileNames[name]
	return crd, ok
}

// Coords returns every tile coordinate in column-major order.
func (p *Part) Coords() []Coord {
	return p.tileOrder
}

// LookupWire resolves a wire name in the tile at crd to its physical
// identity. Internal wires resolve to (crd, wire); connected wires resolve
// to their node, or fail when the tile leaves the slot unbound.
func (p *Part) LookupWire(crd Coord, name string) (NodeOrWire, bool) {
	w, ok := p.wireIndex[name]
	if !ok {
		return NodeOrWire{}, false
	}
	return p.LookupWireID(crd, w)
}

// LookupWireID is LookupWire for an already interned wire.
func (p *Part) LookupWireID(crd Coord, w WireID) (NodeOrWire, bool) {
	tile := p.tiles[crd]
	if tile == nil {
		return NodeOrWire{}, false
	}
	tk := p.TileKinds[tile.Kind]
	twi, ok := tk.wireIndex[w]
	if !ok {
		return NodeOrWire{}, false
	}
	return p.lookupTk(tile, tk, twi)
}

// LookupTkWire resolves a tile-kind wire of the tile at crd.
func (p *Part) LookupTkWire(crd Coord, twi TkWireID) (NodeOrWire, bool) {
	tile := p.tiles[crd]
	if tile == nil {
		return NodeOrWire{}, false
	}
	return p.lookupTk(tile, p.TileKinds[tile.Kind], twi)
}

func (p *Part) lookupTk(tile *Tile, tk *TileKind, twi TkWireID) (NodeOrWire, bool) {
	tw := tk.Wires[twi]
	if tw.Kind == TkWireInternal {
		return Wire(tile.Crd, twi), true
	}
	if tw.ConnIdx >= len(tile.ConnWires) {
		return NodeOrWire{}, false
	}
	n := tile.ConnWires[tw.ConnIdx]
	if n == NoNode {
		return NodeOrWire{}, false
	}
	return Node(n), true
}

func (p *Part) sortTiles() {
	p.tileOrder = p.tileOrder[:0]
	for crd := range p.tiles {
		p.tileOrder = append(p.tileOrder, crd)
	}
	sort.Slice(p.tileOrder, func(i, j int) bool {
		return p.tileOrder[i].Less(p.tileOrder[j])
	})
}
