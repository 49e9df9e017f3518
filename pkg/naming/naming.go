// Package naming maps the abstract interconnect model onto vendor names:
// which raw tile and wire name each abstract wire, pip, bel pin and
// interface adapter appears under.
package naming

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
)

// RawTileID selects one of the raw tiles a grid tile spans. Raw tile 0 holds
// the interconnect names.
type RawTileID int

// TileNamingID indexes NamingDb.TileNamings.
type TileNamingID int

// ConnNamingID indexes NamingDb.ConnNamings.
type ConnNamingID int

// NoNaming marks a grid tile or connector without naming.
const NoNaming = -1

// PipNaming names a pip: the raw tile it lives in and both wire names.
type PipNaming struct {
	Tile     RawTileID
	WireTo   string
	WireFrom string
}

// ExtPipKey identifies a mux edge dst <- src.
type ExtPipKey struct {
	Dst intdb.TileWireCoord
	Src intdb.TileWireCoord
}

// BelPinNaming names one bel pin. Pips are hops between the site pin wire
// (Name) and the routing side (NameFar); IntPips are extra pips per routing
// wire.
type BelPinNaming struct {
	Name      string
	NameFar   string
	Pips      []PipNaming
	IntPips   map[intdb.TileWireCoord]PipNaming
	IsIntfOut bool
}

// BelNaming names a bel: its raw tile and pins. SiteKind, when set, is the
// physical site kind the bel is expected to occupy.
type BelNaming struct {
	Tile     RawTileID
	SiteKind string
	Pins     map[string]BelPinNaming
}

// IriNaming names an interface-routing site slot.
type IriNaming struct {
	Tile RawTileID
	Kind string
}

// TileNaming is the naming of one tile class in one naming context.
type TileNaming struct {
	Name         string
	Wires        map[intdb.TileWireCoord]string
	WireBufs     map[intdb.TileWireCoord]PipNaming
	ExtPips      map[ExtPipKey]PipNaming
	Bels         map[string]BelNaming
	IntfWiresIn  map[intdb.TileWireCoord]IntfWireInNaming
	IntfWiresOut map[intdb.TileWireCoord]IntfWireOutNaming
	Iris         []IriNaming
}

// NewTileNaming returns an empty tile naming.
func NewTileNaming(name string) *TileNaming {
	return &TileNaming{
		Name:         name,
		Wires:        make(map[intdb.TileWireCoord]string),
		WireBufs:     make(map[intdb.TileWireCoord]PipNaming),
		ExtPips:      make(map[ExtPipKey]PipNaming),
		Bels:         make(map[string]BelNaming),
		IntfWiresIn:  make(map[intdb.TileWireCoord]IntfWireInNaming),
		IntfWiresOut: make(map[intdb.TileWireCoord]IntfWireOutNaming),
	}
}

func sortedWires[V any](m map[intdb.TileWireCoord]V) []intdb.TileWireCoord {
	keys := make([]intdb.TileWireCoord, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b intdb.TileWireCoord) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

// WireKeys returns the named wires in (cell, wire) order.
func (tn *TileNaming) WireKeys() []intdb.TileWireCoord {
	return sortedWires(tn.Wires)
}

// IntfWireInKeys returns the interface input wires in (cell, wire) order.
func (tn *TileNaming) IntfWireInKeys() []intdb.TileWireCoord {
	return sortedWires(tn.IntfWiresIn)
}

// ConnWireOutNaming names a connector output. It is ConnOutSimple or
// ConnOutBuf.
type ConnWireOutNaming interface {
	isConnWireOut()
}

// ConnOutSimple is an output driven directly from the input side.
type ConnOutSimple struct {
	Name string
}

// ConnOutBuf is an output driven through a buffer pip NameOut <- NameIn.
type ConnOutBuf struct {
	NameOut string
	NameIn  string
}

func (ConnOutSimple) isConnWireOut() {}
func (ConnOutBuf) isConnWireOut()    {}

// ConnWireInFarNaming names the far-side source of a passing wire. It is
// ConnFarSimple, ConnFarBuf or ConnFarBufFar.
type ConnWireInFarNaming interface {
	isConnWireInFar()
}

// ConnFarSimple is a far source visible directly in the near tile.
type ConnFarSimple struct {
	Name string
}

// ConnFarBuf is a far source buffered in the near tile: Name <- NameIn.
type ConnFarBuf struct {
	Name   string
	NameIn string
}

// ConnFarBufFar is a far source buffered in the far tile:
// NameFarOut <- NameFarIn, where NameFarOut joins Name in the near tile.
type ConnFarBufFar struct {
	Name       string
	NameFarOut string
	NameFarIn  string
}

func (ConnFarSimple) isConnWireInFar() {}
func (ConnFarBuf) isConnWireInFar()    {}
func (ConnFarBufFar) isConnWireInFar() {}

// ConnNaming is the naming of a connector class. Near and far input maps
// are keyed by the source wire slot.
type ConnNaming struct {
	Name        string
	WiresOut    map[intdb.WireSlotID]ConnWireOutNaming
	WiresInNear map[intdb.WireSlotID]string
	WiresInFar  map[intdb.WireSlotID]ConnWireInFarNaming
}

// NewConnNaming returns an empty connector naming.
func NewConnNaming(name string) *ConnNaming {
	return &ConnNaming{
		Name:        name,
		WiresOut:    make(map[intdb.WireSlotID]ConnWireOutNaming),
		WiresInNear: make(map[intdb.WireSlotID]string),
		WiresInFar:  make(map[intdb.WireSlotID]ConnWireInFarNaming),
	}
}

// OutKeys returns the named output wires in slot order.
func (cn *ConnNaming) OutKeys() []intdb.WireSlotID {
	keys := make([]intdb.WireSlotID, 0, len(cn.WiresOut))
	for k := range cn.WiresOut {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NamingDb holds every tile and connector naming of a device family.
type NamingDb struct {
	TileNamings []*TileNaming
	ConnNamings []*ConnNaming

	tileIndex map[string]TileNamingID
	connIndex map[string]ConnNamingID
}

// NewDb returns an empty naming database.
func NewDb() *NamingDb {
	return &NamingDb{
		tileIndex: make(map[string]TileNamingID),
		connIndex: make(map[string]ConnNamingID),
	}
}

// AddTileNaming registers a tile naming.
func (ndb *NamingDb) AddTileNaming(tn *TileNaming) (TileNamingID, error) {
	if _, dup := ndb.tileIndex[tn.Name]; dup {
		return 0, fmt.Errorf("naming: duplicate tile naming %s", tn.Name)
	}
	id := TileNamingID(len(ndb.TileNamings))
	ndb.TileNamings = append(ndb.TileNamings, tn)
	ndb.tileIndex[tn.Name] = id
	return id, nil
}

// AddConnNaming registers a connector naming.
func (ndb *NamingDb) AddConnNaming(cn *ConnNaming) (ConnNamingID, error) {
	if _, dup := ndb.connIndex[cn.Name]; dup {
		return 0, fmt.Errorf("naming: duplicate connector naming %s", cn.Name)
	}
	id := ConnNamingID(len(ndb.ConnNamings))
	ndb.ConnNamings = append(ndb.ConnNamings, cn)
	ndb.connIndex[cn.Name] = id
	return id, nil
}

// TileNamingByName looks a tile naming up by name.
func (ndb *NamingDb) TileNamingByName(name string) (TileNamingID, bool) {
	id, ok := ndb.tileIndex[name]
	return id, ok
}

// ConnNamingByName looks a connector naming up by name.
func (ndb *NamingDb) ConnNamingByName(name string) (ConnNamingID, bool) {
	id, ok := ndb.connIndex[name]
	return id, ok
}
