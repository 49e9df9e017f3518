package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
)

// classUsage lists the tile wires a tile class reads and drives, in first
// mention order.
type classUsage struct {
	usedIn  []intdb.TileWireCoord
	usedOut []intdb.TileWireCoord
}

type wireList struct {
	seen map[intdb.TileWireCoord]bool
	list []intdb.TileWireCoord
}

func (l *wireList) add(w intdb.TileWireCoord) {
	if l.seen == nil {
		l.seen = make(map[intdb.TileWireCoord]bool)
	}
	if !l.seen[w] {
		l.seen[w] = true
		l.list = append(l.list, w)
	}
}

func (v *Verifier) classUsageOf(id intdb.TileClassID) classUsage {
	tc := v.DB.TileClasses[id]
	var in, out wireList
	addPip := func(dst, src intdb.TileWireCoord) {
		out.add(dst)
		if !v.DB.Wires[src.Wire].Kind.IsTie() {
			in.add(src)
		}
	}
	for _, p := range v.tilePips(id) {
		addPip(p.dst, p.src)
	}
	for _, bel := range tc.Bels {
		for _, pin := range bel.Pins {
			for _, w := range pin.Wires {
				switch pin.Dir {
				case intdb.PinInput:
					in.add(w)
				case intdb.PinOutput:
					out.add(w)
				case intdb.PinInout:
					in.add(w)
					out.add(w)
				}
			}
		}
	}
	for _, intf := range tc.Intfs {
		switch info := intf.Info.(type) {
		case intdb.OutputTestMux:
			out.add(intf.Wire)
			for _, src := range info.Srcs {
				in.add(src)
			}
		case intdb.InputDelay, intdb.InputIri, intdb.InputIriDelay:
			in.add(intf.Wire)
		}
	}
	return classUsage{usedIn: in.list, usedOut: out.list}
}

// tilePips returns the mux edges of a tile class after skips and
// injections, in mux order.
func (v *Verifier) tilePips(id intdb.TileClassID) []classPip {
	tc := v.DB.TileClasses[id]
	skip := v.skipClassPips[id]
	seen := make(map[classPip]bool)
	var pips []classPip
	add := func(p classPip) {
		if skip[p] || seen[p] {
			return
		}
		seen[p] = true
		pips = append(pips, p)
	}
	for _, mux := range tc.Muxes {
		for _, src := range mux.Srcs {
			add(classPip{dst: mux.Dst, src: src})
		}
	}
	for _, p := range v.injectClassPips[id] {
		add(p)
	}
	return pips
}

func (v *Verifier) markIn(w grid.WireCoord) {
	if r, ok := v.Grid.ResolveWire(w); ok {
		v.wireData(r).usedIn = true
	}
}

func (v *Verifier) markOut(w grid.WireCoord) {
	if r, ok := v.Grid.ResolveWire(w); ok {
		v.wireData(r).usedOut = true
	}
}

// prepIntWires classifies every resolved wire of the grid as read, driven
// or both. Pinning depends on the complete picture, so this runs before any
// tile is handled.
func (v *Verifier) prepIntWires() {
	usage := make(map[intdb.TileClassID]classUsage)
	for tcrd := range v.Grid.Tiles {
		tcrd := grid.TileCoord(tcrd)
		tile := &v.Grid.Tiles[tcrd]
		cu, ok := usage[tile.Class]
		if !ok {
			cu = v.classUsageOf(tile.Class)
			usage[tile.Class] = cu
		}
		for _, w := range cu.usedIn {
			v.markIn(v.Grid.TileWire(tcrd, w))
		}
		for _, w := range cu.usedOut {
			v.markOut(v.Grid.TileWire(tcrd, w))
		}

		tn := v.Grid.TileNaming(tcrd)
		if tn == nil {
			continue
		}
		for _, wt := range tn.WireKeys() {
			kind := v.DB.Wires[wt.Wire].Kind
			if kind.Tag != intdb.WireBuf {
				continue
			}
			v.markIn(v.Grid.TileWire(tcrd, intdb.TileWireCoord{Cell: wt.Cell, Wire: kind.Src}))
			v.markOut(v.Grid.TileWire(tcrd, wt))
		}
		for _, w := range tn.IntfWireInKeys() {
			if _, ok := tn.IntfWiresIn[w].(naming.IntfInBuf); !ok {
				continue
			}
			v.markIn(v.Grid.TileWire(tcrd, w))
		}
	}

	for cc := range v.Grid.Connectors {
		conn := &v.Grid.Connectors[cc]
		cn := v.Grid.ConnNaming(grid.ConnectorCoord(cc))
		if cn == nil {
			continue
		}
		for _, w := range cn.OutKeys() {
			v.markOut(grid.WireCoord{Cell: conn.Cell, Wire: w})
			if src, ok := v.connSource(conn, w); ok {
				v.markIn(src)
			}
		}
	}
}

// connSource returns the unresolved wire feeding connector output w.
func (v *Verifier) connSource(conn *grid.Connector, w intdb.WireSlotID) (grid.WireCoord, bool) {
	cw, ok := v.DB.ConnClasses[conn.Class].Lookup(w)
	if !ok {
		return grid.WireCoord{}, false
	}
	switch cw := cw.(type) {
	case intdb.Reflect:
		return grid.WireCoord{Cell: conn.Cell, Wire: cw.Src}, true
	case intdb.Pass:
		return grid.WireCoord{Cell: conn.Target, Wire: cw.Src}, true
	}
	return grid.WireCoord{}, false
}
