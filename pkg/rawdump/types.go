// Package rawdump models the physical resources of one FPGA part as extracted
// from vendor tools: tiles at grid coordinates, their tile kinds (wires, pips,
// sites) and the electrical nodes that join connected wires across tiles.
package rawdump

import "fmt"

// Coord is a raw tile coordinate. Tiles order by X, then Y.
type Coord struct {
	X uint16 `json:"x"`
	Y uint16 `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("X%dY%d", c.X, c.Y)
}

// Less orders coordinates column-major.
func (c Coord) Less(o Coord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// WireID is an interned wire name, global to the part.
type WireID int

// NoWire marks a site pin without an attached wire.
const NoWire WireID = -1

// NodeID identifies an electrical node spanning several tiles.
type NodeID int

// NoNode marks a connected wire slot that is not bound to any node.
const NoNode NodeID = -1

// TileKindID indexes Part.TileKinds.
type TileKindID int

// TkWireID indexes TileKind.Wires.
type TkWireID int

// TkPipID indexes TileKind.Pips.
type TkPipID int

// TkSiteID indexes TileKind.Sites.
type TkSiteID int

// TkWireKind says whether a tile-kind wire is private to the tile or joins a
// node shared with other tiles.
type TkWireKind int

const (
	TkWireInternal TkWireKind = iota
	TkWireConnected
)

// TkWire is a wire of a tile kind. ConnIdx is only meaningful for connected
// wires and indexes Tile.ConnWires.
type TkWire struct {
	Wire    WireID
	Kind    TkWireKind
	ConnIdx int
}

// TkPip is a programmable connection from one wire to another within a tile.
type TkPip struct {
	From WireID
	To   WireID
}

// PinDir is the direction of a site pin.
type PinDir int

const (
	PinDirInput PinDir = iota
	PinDirOutput
	PinDirBidir
)

func (d PinDir) String() string {
	switch d {
	case PinDirInput:
		return "IN"
	case PinDirOutput:
		return "OUT"
	case PinDirBidir:
		return "BIDIR"
	}
	return fmt.Sprintf("PinDir(%d)", int(d))
}

// TkSitePin is a pin of a site slot. Wire is NoWire when the pin is not
// attached to routing.
type TkSitePin struct {
	Name string
	Dir  PinDir
	Wire WireID
}

// TkSite is a site slot of a tile kind.
type TkSite struct {
	Slot string
	Kind string
	Pins []TkSitePin

	pinIndex map[string]int
}

// Pin returns the pin with the given name.
func (s *TkSite) Pin(name string) (TkSitePin, bool) {
	i, ok := s.pinIndex[name]
	if !ok {
		return TkSitePin{}, false
	}
	return s.Pins[i], true
}

// TileKind is the shared template of a family of identical tiles.
type TileKind struct {
	Name  string
	Wires []TkWire
	Pips  []TkPip
	Sites []TkSite

	wireIndex map[WireID]TkWireID
	pipIndex  map[TkPip]TkPipID
	connCount int
}

// Wire returns the tile-kind wire id for a part wire.
func (tk *TileKind) Wire(w WireID) (TkWireID, bool) {
	id, ok := tk.wireIndex[w]
	return id, ok
}

// Pip returns the pip from -> to.
func (tk *TileKind) Pip(from, to WireID) (TkPipID, bool) {
	id, ok := tk.pipIndex[TkPip{From: from, To: to}]
	return id, ok
}

// ConnCount is the number of connected wire slots of the kind.
func (tk *TileKind) ConnCount() int {
	return tk.connCount
}

// Tile is one instance of a tile kind placed on the grid.
type Tile struct {
	Name string
	Crd  Coord
	Kind TileKindID
	// Sites holds the site instance name per TkSiteID; empty when the
	// slot has no instance in this tile.
	Sites []string
	// ConnWires holds the node bound to each connected wire slot, or NoNode.
	ConnWires []NodeID
}

// NodeOrWire is the physical identity a wire name resolves to: either a
// node shared across tiles or a wire private to one tile.
type NodeOrWire struct {
	node bool
	Node NodeID
	Crd  Coord
	Wire TkWireID
}

// Node returns the identity of a shared node.
func Node(n NodeID) NodeOrWire {
	return NodeOrWire{node: true, Node: n}
}

// Wire returns the identity of a tile-internal wire.
func Wire(crd Coord, w TkWireID) NodeOrWire {
	return NodeOrWire{Crd: crd, Wire: w}
}

// IsNode reports whether the identity is a shared node.
func (nw NodeOrWire) IsNode() bool {
	return nw.node
}

func (nw NodeOrWire) String() string {
	if nw.node {
		return fmt.Sprintf("node %d", nw.Node)
	}
	return fmt.Sprintf("wire %s:%d", nw.Crd, nw.Wire)
}
