// Package verify proves that an abstract interconnect model and the physical
// fabric of a part describe the same thing.
//
// A Verifier walks every tile and connector of an expanded grid, resolves
// each abstract wire, pip, bel pin and interface adapter to its vendor name,
// and claims the physical resource it lands on. Anything that cannot be
// found is reported; anything claimed twice is reported; and Finish reports
// every physical resource nobody claimed.
//
// Model inconsistencies never stop a run. Malformed naming tables do: they
// panic with an *InvariantError.
package verify

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/bitvec"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// RawWire is a vendor wire name inside one physical tile.
type RawWire struct {
	Crd  rawdump.Coord
	Name string
}

// SitePin is an expected pin of a site. An empty Wire means the pin is
// expected to have no routing attached, unless the physical pin has one, in
// which case that wire is claimed.
type SitePin struct {
	Name string
	Dir  rawdump.PinDir
	Wire string
}

// InvariantError reports a malformed model or naming table.
type InvariantError struct {
	Tile string
	Wire string
	Msg  string
}

func (e *InvariantError) Error() string {
	if e.Wire != "" {
		return fmt.Sprintf("verify: %s: %s: %s", e.Tile, e.Wire, e.Msg)
	}
	return fmt.Sprintf("verify: %s: %s", e.Tile, e.Msg)
}

func invariant(tile, wire, format string, args ...any) {
	panic(&InvariantError{Tile: tile, Wire: wire, Msg: fmt.Sprintf(format, args...)})
}

type wireUsage struct {
	usedIn      bool
	usedOut     bool
	node        rawdump.NodeOrWire
	hasNode     bool
	intfNode    rawdump.NodeOrWire
	hasIntfNode bool
	intfMissing bool
}

type classPip struct {
	dst intdb.TileWireCoord
	src intdb.TileWireCoord
}

type belPin struct {
	bel string
	pin string
}

type tkWire struct {
	kind rawdump.TileKindID
	wire rawdump.WireID
}

type nodeSet map[rawdump.NodeOrWire]struct{}

func (s nodeSet) insert(nw rawdump.NodeOrWire) bool {
	if _, ok := s[nw]; ok {
		return false
	}
	s[nw] = struct{}{}
	return true
}

// Verifier holds the state of one verification run.
type Verifier struct {
	Part   *rawdump.Part
	Grid   *grid.ExpandedGrid
	DB     *intdb.IntDb
	Naming *naming.NamingDb

	sink diag.Sink
	log  logrus.FieldLogger

	claimedNodes *bitvec.BitVec[rawdump.NodeID]
	claimedWires map[rawdump.Coord]*bitvec.BitVec[rawdump.TkWireID]
	claimedPips  map[rawdump.Coord]*bitvec.BitVec[rawdump.TkPipID]
	claimedSites map[rawdump.Coord]*bitvec.BitVec[rawdump.TkSiteID]

	usage    map[grid.WireCoord]*wireUsage
	dummyIn  nodeSet
	dummyOut nodeSet
	vccNodes nodeSet

	wireSlotAliases map[intdb.WireSlotID]intdb.WireSlotID
	intfIntAliases  map[grid.WireCoord]grid.WireCoord
	skipClassPips   map[intdb.TileClassID]map[classPip]bool
	injectClassPips map[intdb.TileClassID][]classPip
	skipBelPins     map[belPin]bool

	skipResidualSites bool
	skipResidualPips  bool
	skipResidualNodes bool

	stubOuts      map[rawdump.WireID]bool
	stubIns       map[rawdump.WireID]bool
	condStubOuts  map[rawdump.WireID]bool
	condStubIns   map[rawdump.WireID]bool
	condStubInsTk map[tkWire]bool
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSink sends diagnostics to s. The default prints them to stdout.
func WithSink(s diag.Sink) Option {
	return func(v *Verifier) { v.sink = s }
}

// WithLogger logs run progress to l. The default discards it.
func WithLogger(l logrus.FieldLogger) Option {
	return func(v *Verifier) { v.log = l }
}

// New prepares a run over part and g.
func New(part *rawdump.Part, g *grid.ExpandedGrid, opts ...Option) *Verifier {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	v := &Verifier{
		Part:            part,
		Grid:            g,
		DB:              g.DB,
		Naming:          g.Naming,
		sink:            diag.NewConsoleSink(os.Stdout),
		log:             quiet,
		claimedNodes:    bitvec.New[rawdump.NodeID](part.NodeCount),
		claimedWires:    make(map[rawdump.Coord]*bitvec.BitVec[rawdump.TkWireID]),
		claimedPips:     make(map[rawdump.Coord]*bitvec.BitVec[rawdump.TkPipID]),
		claimedSites:    make(map[rawdump.Coord]*bitvec.BitVec[rawdump.TkSiteID]),
		usage:           make(map[grid.WireCoord]*wireUsage),
		dummyIn:         make(nodeSet),
		dummyOut:        make(nodeSet),
		vccNodes:        make(nodeSet),
		wireSlotAliases: make(map[intdb.WireSlotID]intdb.WireSlotID),
		intfIntAliases:  make(map[grid.WireCoord]grid.WireCoord),
		skipClassPips:   make(map[intdb.TileClassID]map[classPip]bool),
		injectClassPips: make(map[intdb.TileClassID][]classPip),
		skipBelPins:     make(map[belPin]bool),
		stubOuts:        make(map[rawdump.WireID]bool),
		stubIns:         make(map[rawdump.WireID]bool),
		condStubOuts:    make(map[rawdump.WireID]bool),
		condStubIns:     make(map[rawdump.WireID]bool),
		condStubInsTk:   make(map[tkWire]bool),
	}
	for _, crd := range part.Coords() {
		tk := part.TileKind(part.Tile(crd).Kind)
		v.claimedWires[crd] = bitvec.New[rawdump.TkWireID](len(tk.Wires))
		v.claimedPips[crd] = bitvec.New[rawdump.TkPipID](len(tk.Pips))
		v.claimedSites[crd] = bitvec.New[rawdump.TkSiteID](len(tk.Sites))
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Logger returns the run logger.
func (v *Verifier) Logger() logrus.FieldLogger {
	return v.log
}

func (v *Verifier) emit(cat diag.Category, tile, format string, args ...any) {
	v.sink.Emit(diag.Diagnostic{
		Category: cat,
		Part:     v.Part.Name,
		Tile:     tile,
		Detail:   fmt.Sprintf(format, args...),
	})
}

func (v *Verifier) tileName(crd rawdump.Coord) string {
	if t := v.Part.Tile(crd); t != nil {
		return t.Name
	}
	return crd.String()
}

// XlatTile translates a raw tile name to its coordinate.
func (v *Verifier) XlatTile(name string) (rawdump.Coord, bool) {
	return v.Part.TileByName(name)
}

func (v *Verifier) wireData(w grid.WireCoord) *wireUsage {
	u, ok := v.usage[w]
	if !ok {
		u = &wireUsage{}
		v.usage[w] = u
	}
	return u
}

func (v *Verifier) wireString(w grid.WireCoord) string {
	return fmt.Sprintf("%s.%s", w.Cell, v.DB.Wires[w.Wire].Name)
}

func (v *Verifier) tileWireString(tw intdb.TileWireCoord) string {
	return v.DB.WireName(tw)
}

// AliasWireSlot makes pinning of wire slot from use the identity of slot to.
func (v *Verifier) AliasWireSlot(from, to intdb.WireSlotID) {
	v.wireSlotAliases[from] = to
}

// AliasIntfInt pins interface wire from as the routing wire to.
func (v *Verifier) AliasIntfInt(from, to grid.WireCoord) {
	v.intfIntAliases[from] = to
}

// SkipTileClassPip drops the mux edge dst <- src of a tile class.
func (v *Verifier) SkipTileClassPip(tc intdb.TileClassID, dst, src intdb.TileWireCoord) {
	m := v.skipClassPips[tc]
	if m == nil {
		m = make(map[classPip]bool)
		v.skipClassPips[tc] = m
	}
	m[classPip{dst: dst, src: src}] = true
}

// InjectTileClassPip adds a mux edge dst <- src to a tile class.
func (v *Verifier) InjectTileClassPip(tc intdb.TileClassID, dst, src intdb.TileWireCoord) {
	v.injectClassPips[tc] = append(v.injectClassPips[tc], classPip{dst: dst, src: src})
}

// SkipBelPin leaves pin out of every bel named bel.
func (v *Verifier) SkipBelPin(bel, pin string) {
	v.skipBelPins[belPin{bel: bel, pin: pin}] = true
}

func (v *Verifier) SkipResidualSites() { v.skipResidualSites = true }
func (v *Verifier) SkipResidualPips()  { v.skipResidualPips = true }
func (v *Verifier) SkipResidualNodes() { v.skipResidualNodes = true }

// SkipResidual turns the residual scan off entirely.
func (v *Verifier) SkipResidual() {
	v.SkipResidualSites()
	v.SkipResidualPips()
	v.SkipResidualNodes()
}

// KillStubOut claims every wire called name, and every pip driving it.
// Unknown names are ignored.
func (v *Verifier) KillStubOut(name string) {
	if w, ok := v.Part.WireByName(name); ok {
		v.stubOuts[w] = true
	}
}

// KillStubIn claims every wire called name, and every pip it drives.
func (v *Verifier) KillStubIn(name string) {
	if w, ok := v.Part.WireByName(name); ok {
		v.stubIns[w] = true
	}
}

// KillStubOutCond is KillStubOut for wires nothing else claimed.
func (v *Verifier) KillStubOutCond(name string) {
	if w, ok := v.Part.WireByName(name); ok {
		v.condStubOuts[w] = true
	}
}

// KillStubInCond is KillStubIn for wires nothing else claimed.
func (v *Verifier) KillStubInCond(name string) {
	if w, ok := v.Part.WireByName(name); ok {
		v.condStubIns[w] = true
	}
}

// KillStubInCondTileKind is KillStubInCond limited to tiles of kind tk.
func (v *Verifier) KillStubInCondTileKind(tk, name string) {
	kind, ok := v.Part.TileKindByName(tk)
	if !ok {
		return
	}
	if w, ok := v.Part.WireByName(name); ok {
		v.condStubInsTk[tkWire{kind: kind, wire: w}] = true
	}
}
