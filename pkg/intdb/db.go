// Package intdb holds the vendor-independent interconnect model: wire slots,
// tile classes with their muxes, bels and interface adapters, and connector
// classes that join neighbouring cells.
//
// Every collection that the verifier walks is an ordered slice. Maps are kept
// only as lookup indexes, so iteration order never depends on hashing.
package intdb

import (
	"fmt"
	"strconv"
	"strings"
)

// WireSlotID indexes IntDb.Wires.
type WireSlotID int

// ConnSlotID indexes IntDb.ConnSlots.
type ConnSlotID int

// CellSlotID is a cell position within a multi-cell tile.
type CellSlotID int

// TileClassID indexes IntDb.TileClasses.
type TileClassID int

// ConnClassID indexes IntDb.ConnClasses.
type ConnClassID int

// BelID indexes TileClass.Bels.
type BelID int

// IriID numbers the interface-routing sites of a tile class.
type IriID int

// WireKindTag classifies a wire slot.
type WireKindTag int

const (
	WireRegular WireKindTag = iota
	WireTie0
	WireTie1
	WireTiePullup
	WireMuxOut
	WireBelOut
	WireSpecial
	// WireBranch wires continue through the connector in Conn.
	WireBranch
	// WireBuf wires are a fixed buffer of Src in the same cell.
	WireBuf
)

var wireKindNames = map[WireKindTag]string{
	WireRegular:   "regular",
	WireTie0:      "tie0",
	WireTie1:      "tie1",
	WireTiePullup: "tie_pullup",
	WireMuxOut:    "mux_out",
	WireBelOut:    "bel_out",
	WireSpecial:   "special",
	WireBranch:    "branch",
	WireBuf:       "buf",
}

func (t WireKindTag) String() string {
	if s, ok := wireKindNames[t]; ok {
		return s
	}
	return fmt.Sprintf("WireKindTag(%d)", int(t))
}

// ParseWireKindTag is the inverse of WireKindTag.String.
func ParseWireKindTag(s string) (WireKindTag, bool) {
	for k, v := range wireKindNames {
		if v == s {
			return k, true
		}
	}
	return 0, false
}

// WireKind is a wire slot classification with its payload.
type WireKind struct {
	Tag  WireKindTag
	Conn ConnSlotID // WireBranch only
	Src  WireSlotID // WireBuf only
}

// Branch is the kind of a wire continued through a connector slot.
func Branch(slot ConnSlotID) WireKind { return WireKind{Tag: WireBranch, Conn: slot} }

// Buf is the kind of a wire buffered from src.
func Buf(src WireSlotID) WireKind { return WireKind{Tag: WireBuf, Src: src} }

// IsTie reports whether the wire is a constant source.
func (k WireKind) IsTie() bool {
	return k.Tag == WireTie0 || k.Tag == WireTie1 || k.Tag == WireTiePullup
}

// Wire is a wire slot present in every cell.
type Wire struct {
	Name string
	Kind WireKind
}

// TileWireCoord addresses a wire relative to a tile.
type TileWireCoord struct {
	Cell CellSlotID
	Wire WireSlotID
}

// Less orders by cell, then wire.
func (t TileWireCoord) Less(o TileWireCoord) bool {
	if t.Cell != o.Cell {
		return t.Cell < o.Cell
	}
	return t.Wire < o.Wire
}

// IntDb is the abstract interconnect database of one device family.
type IntDb struct {
	Wires       []Wire
	ConnSlots   []string
	TileClasses []*TileClass
	ConnClasses []*ConnClass

	wireIndex      map[string]WireSlotID
	connSlotIndex  map[string]ConnSlotID
	tileClassIndex map[string]TileClassID
	connClassIndex map[string]ConnClassID
}

// New returns an empty database.
func New() *IntDb {
	return &IntDb{
		wireIndex:      make(map[string]WireSlotID),
		connSlotIndex:  make(map[string]ConnSlotID),
		tileClassIndex: make(map[string]TileClassID),
		connClassIndex: make(map[string]ConnClassID),
	}
}

// AddConnSlot registers a connector slot name.
func (db *IntDb) AddConnSlot(name string) (ConnSlotID, error) {
	if _, dup := db.connSlotIndex[name]; dup {
		return 0, fmt.Errorf("intdb: duplicate connector slot %s", name)
	}
	id := ConnSlotID(len(db.ConnSlots))
	db.ConnSlots = append(db.ConnSlots, name)
	db.connSlotIndex[name] = id
	return id, nil
}

// AddWire registers a wire slot.
func (db *IntDb) AddWire(name string, kind WireKind) (WireSlotID, error) {
	if _, dup := db.wireIndex[name]; dup {
		return 0, fmt.Errorf("intdb: duplicate wire %s", name)
	}
	if kind.Tag == WireBranch && (kind.Conn < 0 || int(kind.Conn) >= len(db.ConnSlots)) {
		return 0, fmt.Errorf("intdb: wire %s: unknown connector slot %d", name, kind.Conn)
	}
	if kind.Tag == WireBuf && (kind.Src < 0 || int(kind.Src) >= len(db.Wires)) {
		return 0, fmt.Errorf("intdb: wire %s: buffer source must be declared first", name)
	}
	id := WireSlotID(len(db.Wires))
	db.Wires = append(db.Wires, Wire{Name: name, Kind: kind})
	db.wireIndex[name] = id
	return id, nil
}

// AddTileClass registers a tile class.
func (db *IntDb) AddTileClass(tc *TileClass) (TileClassID, error) {
	if _, dup := db.tileClassIndex[tc.Name]; dup {
		return 0, fmt.Errorf("intdb: duplicate tile class %s", tc.Name)
	}
	id := TileClassID(len(db.TileClasses))
	db.TileClasses = append(db.TileClasses, tc)
	db.tileClassIndex[tc.Name] = id
	return id, nil
}

// AddConnClass registers a connector class.
func (db *IntDb) AddConnClass(cc *ConnClass) (ConnClassID, error) {
	if _, dup := db.connClassIndex[cc.Name]; dup {
		return 0, fmt.Errorf("intdb: duplicate connector class %s", cc.Name)
	}
	cc.reindex()
	id := ConnClassID(len(db.ConnClasses))
	db.ConnClasses = append(db.ConnClasses, cc)
	db.connClassIndex[cc.Name] = id
	return id, nil
}

// WireByName looks a wire slot up by name.
func (db *IntDb) WireByName(name string) (WireSlotID, bool) {
	id, ok := db.wireIndex[name]
	return id, ok
}

// ConnSlotByName looks a connector slot up by name.
func (db *IntDb) ConnSlotByName(name string) (ConnSlotID, bool) {
	id, ok := db.connSlotIndex[name]
	return id, ok
}

// TileClassByName looks a tile class up by name.
func (db *IntDb) TileClassByName(name string) (TileClassID, bool) {
	id, ok := db.tileClassIndex[name]
	return id, ok
}

// ConnClassByName looks a connector class up by name.
func (db *IntDb) ConnClassByName(name string) (ConnClassID, bool) {
	id, ok := db.connClassIndex[name]
	return id, ok
}

// WireName renders a tile wire as "<cell>.<name>".
func (db *IntDb) WireName(tw TileWireCoord) string {
	return fmt.Sprintf("%d.%s", tw.Cell, db.Wires[tw.Wire].Name)
}

// ParseTileWire is the inverse of WireName. A reference without a cell
// prefix names cell 0.
func (db *IntDb) ParseTileWire(ref string) (TileWireCoord, bool) {
	cell, name := 0, ref
	if pre, rest, ok := strings.Cut(ref, "."); ok {
		if n, err := strconv.Atoi(pre); err == nil && n >= 0 {
			cell, name = n, rest
		}
	}
	w, ok := db.wireIndex[name]
	if !ok {
		return TileWireCoord{}, false
	}
	return TileWireCoord{Cell: CellSlotID(cell), Wire: w}, true
}
