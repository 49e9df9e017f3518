package bundle

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
)

// pathError is a conversion error at a document path.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return fmt.Sprintf("bundle: %s: %v", e.path, e.err) }
func (e *pathError) Unwrap() error { return e.err }

func at(path string, format string, args ...any) error {
	return &pathError{path: path, err: fmt.Errorf(format, args...)}
}

func wrapAt(path string, err error) error {
	return &pathError{path: path, err: err}
}

type builder struct {
	db  *intdb.IntDb
	ndb *naming.NamingDb
}

// wireRef parses "NAME" or "CELL.NAME".
func (b *builder) wireRef(path, ref string) (intdb.TileWireCoord, error) {
	tw, ok := b.db.ParseTileWire(ref)
	if !ok {
		return intdb.TileWireCoord{}, at(path, "unknown wire %q", ref)
	}
	return tw, nil
}

func (b *builder) wireRefs(path string, refs []string) ([]intdb.TileWireCoord, error) {
	out := make([]intdb.TileWireCoord, 0, len(refs))
	for i, r := range refs {
		tw, err := b.wireRef(fmt.Sprintf("%s[%d]", path, i), r)
		if err != nil {
			return nil, err
		}
		out = append(out, tw)
	}
	return out, nil
}

func (b *builder) slot(path, name string) (intdb.WireSlotID, error) {
	w, ok := b.db.WireByName(name)
	if !ok {
		return 0, at(path, "unknown wire %q", name)
	}
	return w, nil
}

// Build converts a validated document into a bundle.
func (d *Document) Build() (*Bundle, error) {
	b := &builder{db: intdb.New(), ndb: naming.NewDb()}
	for i, s := range d.ConnSlots {
		if _, err := b.db.AddConnSlot(s); err != nil {
			return nil, wrapAt(fmt.Sprintf("conn_slots[%d]", i), err)
		}
	}
	if err := b.wires(d.Wires); err != nil {
		return nil, err
	}
	for i := range d.TileClasses {
		if err := b.tileClass(fmt.Sprintf("tile_classes[%d]", i), &d.TileClasses[i]); err != nil {
			return nil, err
		}
	}
	for i := range d.ConnClasses {
		if err := b.connClass(fmt.Sprintf("conn_classes[%d]", i), &d.ConnClasses[i]); err != nil {
			return nil, err
		}
	}
	for i := range d.TileNamings {
		if err := b.tileNaming(fmt.Sprintf("tile_namings[%d]", i), &d.TileNamings[i]); err != nil {
			return nil, err
		}
	}
	for i := range d.ConnNamings {
		if err := b.connNaming(fmt.Sprintf("conn_namings[%d]", i), &d.ConnNamings[i]); err != nil {
			return nil, err
		}
	}
	g, err := b.grid(&d.Grid)
	if err != nil {
		return nil, err
	}
	return &Bundle{DB: b.db, Naming: b.ndb, Grid: g}, nil
}

// wires adds wire slots. Buffer sources may be declared after the buffer in
// the document, so buffers are added once their source exists.
func (b *builder) wires(docs []WireDoc) error {
	pending := make([]int, 0, len(docs))
	for i := range docs {
		pending = append(pending, i)
	}
	for len(pending) > 0 {
		var next []int
		for _, i := range pending {
			wd := docs[i]
			path := fmt.Sprintf("wires[%d]", i)
			kind := intdb.WireKind{Tag: intdb.WireRegular}
			if wd.Kind != "" {
				tag, ok := intdb.ParseWireKindTag(wd.Kind)
				if !ok {
					return at(path, "unknown wire kind %q", wd.Kind)
				}
				kind.Tag = tag
			}
			switch kind.Tag {
			case intdb.WireBranch:
				s, ok := b.db.ConnSlotByName(wd.Slot)
				if !ok {
					return at(path, "branch wire %s: unknown connector slot %q", wd.Name, wd.Slot)
				}
				kind.Conn = s
			case intdb.WireBuf:
				src, ok := b.db.WireByName(wd.Src)
				if !ok {
					if !slices.ContainsFunc(docs, func(o WireDoc) bool { return o.Name == wd.Src }) {
						return at(path, "buffer wire %s: unknown source %q", wd.Name, wd.Src)
					}
					next = append(next, i)
					continue
				}
				kind.Src = src
			}
			if _, err := b.db.AddWire(wd.Name, kind); err != nil {
				return wrapAt(path, err)
			}
		}
		if len(next) == len(pending) {
			return at(fmt.Sprintf("wires[%d]", next[0]), "buffer wires form a cycle")
		}
		pending = next
	}
	return nil
}

func pinDir(path, s string) (intdb.PinDir, error) {
	switch s {
	case "input":
		return intdb.PinInput, nil
	case "output":
		return intdb.PinOutput, nil
	case "inout":
		return intdb.PinInout, nil
	}
	return 0, at(path, "unknown pin direction %q", s)
}

func (b *builder) tileClass(path string, cd *TileClassDoc) error {
	tc := &intdb.TileClass{Name: cd.Name, NumCells: cd.Cells}
	if tc.NumCells == 0 {
		tc.NumCells = 1
	}
	for i, md := range cd.Muxes {
		mpath := fmt.Sprintf("%s.muxes[%d]", path, i)
		dst, err := b.wireRef(mpath+".dst", md.Dst)
		if err != nil {
			return err
		}
		srcs, err := b.wireRefs(mpath+".srcs", md.Srcs)
		if err != nil {
			return err
		}
		tc.Muxes = append(tc.Muxes, intdb.Mux{Dst: dst, Srcs: srcs})
	}
	for i, bd := range cd.Bels {
		bel := intdb.Bel{Name: bd.Name}
		for j, pd := range bd.Pins {
			ppath := fmt.Sprintf("%s.bels[%d].pins[%d]", path, i, j)
			dir, err := pinDir(ppath+".dir", pd.Dir)
			if err != nil {
				return err
			}
			ws, err := b.wireRefs(ppath+".wires", pd.Wires)
			if err != nil {
				return err
			}
			bel.Pins = append(bel.Pins, intdb.BelPin{Name: pd.Name, Dir: dir, Wires: ws, IsIntfIn: pd.IntfIn})
		}
		tc.Bels = append(tc.Bels, bel)
	}
	for i, id := range cd.Intfs {
		ipath := fmt.Sprintf("%s.intfs[%d]", path, i)
		w, err := b.wireRef(ipath+".wire", id.Wire)
		if err != nil {
			return err
		}
		var info intdb.IntfInfo
		switch id.Kind {
		case "delay":
			info = intdb.InputDelay{}
		case "test_mux":
			srcs, err := b.wireRefs(ipath+".srcs", id.Srcs)
			if err != nil {
				return err
			}
			info = intdb.OutputTestMux{Srcs: srcs}
		case "iri", "iri_delay":
			pin, err := intdb.ParseIriPin(id.Pin)
			if err != nil {
				return wrapAt(ipath+".pin", err)
			}
			if id.Kind == "iri" {
				info = intdb.InputIri{Iri: intdb.IriID(id.Iri), Pin: pin}
			} else {
				info = intdb.InputIriDelay{Iri: intdb.IriID(id.Iri), Pin: pin}
			}
		default:
			return at(ipath+".kind", "unknown interface kind %q", id.Kind)
		}
		tc.Intfs = append(tc.Intfs, intdb.Intf{Wire: w, Info: info})
	}
	if _, err := b.db.AddTileClass(tc); err != nil {
		return wrapAt(path, err)
	}
	return nil
}

func (b *builder) connClass(path string, cd *ConnClassDoc) error {
	slot, ok := b.db.ConnSlotByName(cd.Slot)
	if !ok {
		return at(path+".slot", "unknown connector slot %q", cd.Slot)
	}
	cc := &intdb.ConnClass{Name: cd.Name, Slot: slot}
	for i, wd := range cd.Wires {
		wpath := fmt.Sprintf("%s.wires[%d]", path, i)
		w, err := b.slot(wpath+".wire", wd.Wire)
		if err != nil {
			return err
		}
		var kind intdb.ConnectorWire
		switch wd.Kind {
		case "blackhole":
			kind = intdb.BlackHole{}
		case "reflect", "pass":
			src, err := b.slot(wpath+".src", wd.Src)
			if err != nil {
				return err
			}
			if wd.Kind == "reflect" {
				kind = intdb.Reflect{Src: src}
			} else {
				kind = intdb.Pass{Src: src}
			}
		default:
			return at(wpath+".kind", "unknown connector wire kind %q", wd.Kind)
		}
		cc.Wires = append(cc.Wires, intdb.ConnWire{Wire: w, Kind: kind})
	}
	slices.SortStableFunc(cc.Wires, func(a, b intdb.ConnWire) int { return int(a.Wire) - int(b.Wire) })
	if _, err := b.db.AddConnClass(cc); err != nil {
		return wrapAt(path, err)
	}
	return nil
}

func pipNaming(p PipDoc) naming.PipNaming {
	return naming.PipNaming{Tile: naming.RawTileID(p.Tile), WireTo: p.To, WireFrom: p.From}
}

// sortedKeys keeps conversion errors stable across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func intfIn(path string, d IntfNameDoc) (naming.IntfWireInNaming, error) {
	switch d.Kind {
	case "simple":
		return naming.IntfInSimple{Name: d.Name}, nil
	case "buf":
		return naming.IntfInBuf{NameOut: d.Out, NameIn: d.In}, nil
	case "test_buf":
		return naming.IntfInTestBuf{NameOut: d.Out, NameIn: d.In}, nil
	case "delay":
		return naming.IntfInDelay{NameOut: d.Out, NameDelay: d.Delay, NameIn: d.In}, nil
	case "iri":
		return naming.IntfInIri{NameOut: d.Out, NamePinOut: d.PinOut, NamePinIn: d.PinIn, NameIn: d.In}, nil
	case "iri_delay":
		return naming.IntfInIriDelay{
			NameOut: d.Out, NameDelay: d.Delay, NamePreDelay: d.PreDelay,
			NamePinOut: d.PinOut, NamePinIn: d.PinIn, NameIn: d.In,
		}, nil
	}
	return nil, at(path, "unknown interface input naming %q", d.Kind)
}

func (b *builder) tileNaming(path string, nd *TileNamingDoc) error {
	tn := naming.NewTileNaming(nd.Name)
	for _, k := range sortedKeys(nd.Wires) {
		tw, err := b.wireRef(path+".wires", k)
		if err != nil {
			return err
		}
		tn.Wires[tw] = nd.Wires[k]
	}
	for _, k := range sortedKeys(nd.WireBufs) {
		tw, err := b.wireRef(path+".wire_bufs", k)
		if err != nil {
			return err
		}
		tn.WireBufs[tw] = pipNaming(nd.WireBufs[k])
	}
	for i, ep := range nd.ExtPips {
		epath := fmt.Sprintf("%s.ext_pips[%d]", path, i)
		dst, err := b.wireRef(epath+".dst", ep.Dst)
		if err != nil {
			return err
		}
		src, err := b.wireRef(epath+".src", ep.Src)
		if err != nil {
			return err
		}
		tn.ExtPips[naming.ExtPipKey{Dst: dst, Src: src}] = naming.PipNaming{
			Tile: naming.RawTileID(ep.Tile), WireTo: ep.To, WireFrom: ep.From,
		}
	}
	for _, bel := range sortedKeys(nd.Bels) {
		bd := nd.Bels[bel]
		bn := naming.BelNaming{
			Tile:     naming.RawTileID(bd.Tile),
			SiteKind: bd.SiteKind,
			Pins:     make(map[string]naming.BelPinNaming, len(bd.Pins)),
		}
		for _, pin := range sortedKeys(bd.Pins) {
			pd := bd.Pins[pin]
			pn := naming.BelPinNaming{Name: pd.Name, NameFar: pd.NameFar, IsIntfOut: pd.IntfOut}
			for _, p := range pd.Pips {
				pn.Pips = append(pn.Pips, pipNaming(p))
			}
			if len(pd.IntPips) > 0 {
				pn.IntPips = make(map[intdb.TileWireCoord]naming.PipNaming, len(pd.IntPips))
				for _, k := range sortedKeys(pd.IntPips) {
					tw, err := b.wireRef(fmt.Sprintf("%s.bels.%s.pins.%s.int_pips", path, bel, pin), k)
					if err != nil {
						return err
					}
					pn.IntPips[tw] = pipNaming(pd.IntPips[k])
				}
			}
			bn.Pins[pin] = pn
		}
		tn.Bels[bel] = bn
	}
	for _, k := range sortedKeys(nd.IntfIn) {
		ipath := path + ".intf_in." + k
		tw, err := b.wireRef(ipath, k)
		if err != nil {
			return err
		}
		in, err := intfIn(ipath, nd.IntfIn[k])
		if err != nil {
			return err
		}
		tn.IntfWiresIn[tw] = in
	}
	for _, k := range sortedKeys(nd.IntfOut) {
		opath := path + ".intf_out." + k
		tw, err := b.wireRef(opath, k)
		if err != nil {
			return err
		}
		switch d := nd.IntfOut[k]; d.Kind {
		case "simple":
			tn.IntfWiresOut[tw] = naming.IntfOutSimple{Name: d.Name}
		case "buf":
			tn.IntfWiresOut[tw] = naming.IntfOutBuf{NameOut: d.Out, NameIn: d.In}
		default:
			return at(opath, "unknown interface output naming %q", d.Kind)
		}
	}
	for _, in := range nd.Iris {
		tn.Iris = append(tn.Iris, naming.IriNaming{Tile: naming.RawTileID(in.Tile), Kind: in.Kind})
	}
	if _, err := b.ndb.AddTileNaming(tn); err != nil {
		return wrapAt(path, err)
	}
	return nil
}

func (b *builder) connNaming(path string, nd *ConnNamingDoc) error {
	cn := naming.NewConnNaming(nd.Name)
	for _, k := range sortedKeys(nd.Out) {
		opath := path + ".out." + k
		w, err := b.slot(opath, k)
		if err != nil {
			return err
		}
		switch d := nd.Out[k]; d.Kind {
		case "simple":
			cn.WiresOut[w] = naming.ConnOutSimple{Name: d.Name}
		case "buf":
			cn.WiresOut[w] = naming.ConnOutBuf{NameOut: d.Out, NameIn: d.In}
		default:
			return at(opath, "unknown connector output naming %q", d.Kind)
		}
	}
	for _, k := range sortedKeys(nd.InNear) {
		w, err := b.slot(path+".in_near."+k, k)
		if err != nil {
			return err
		}
		cn.WiresInNear[w] = nd.InNear[k]
	}
	for _, k := range sortedKeys(nd.InFar) {
		fpath := path + ".in_far." + k
		w, err := b.slot(fpath, k)
		if err != nil {
			return err
		}
		switch d := nd.InFar[k]; d.Kind {
		case "simple":
			cn.WiresInFar[w] = naming.ConnFarSimple{Name: d.Name}
		case "buf":
			cn.WiresInFar[w] = naming.ConnFarBuf{Name: d.Name, NameIn: d.In}
		case "buf_far":
			cn.WiresInFar[w] = naming.ConnFarBufFar{Name: d.Name, NameFarOut: d.FarOut, NameFarIn: d.FarIn}
		default:
			return at(fpath, "unknown connector input naming %q", d.Kind)
		}
	}
	if _, err := b.ndb.AddConnNaming(cn); err != nil {
		return wrapAt(path, err)
	}
	return nil
}

func cellOf(c [2]int) grid.CellCoord {
	return grid.CellCoord{Col: c[0], Row: c[1]}
}

func (b *builder) gridWire(path string, gw GridWireDoc) (grid.WireCoord, error) {
	w, err := b.slot(path+".wire", gw.Wire)
	if err != nil {
		return grid.WireCoord{}, err
	}
	return grid.WireCoord{Cell: cellOf(gw.Cell), Wire: w}, nil
}

func (b *builder) grid(gd *GridDoc) (*grid.ExpandedGrid, error) {
	g := grid.New(b.db, b.ndb, gd.Cols, gd.Rows)
	g.TieKind = gd.Tie.Kind
	g.TiePinGnd = gd.Tie.Gnd
	g.TiePinVcc = gd.Tie.Vcc
	g.TiePinPullup = gd.Tie.Pullup
	for i, td := range gd.Tiles {
		path := fmt.Sprintf("grid.tiles[%d]", i)
		cls, ok := b.db.TileClassByName(td.Class)
		if !ok {
			return nil, at(path+".class", "unknown tile class %q", td.Class)
		}
		tile := grid.Tile{
			Class:      cls,
			Naming:     naming.NoNaming,
			Names:      td.Names,
			TieName:    td.TieName,
			TieRawTile: naming.RawTileID(td.TieTile),
			BelNames:   td.Bels,
			IriNames:   td.Iris,
		}
		for _, c := range td.Cells {
			tile.Cells = append(tile.Cells, cellOf(c))
		}
		if td.Naming != "" {
			n, ok := b.ndb.TileNamingByName(td.Naming)
			if !ok {
				return nil, at(path+".naming", "unknown tile naming %q", td.Naming)
			}
			tile.Naming = n
		}
		if _, err := g.AddTile(tile); err != nil {
			return nil, wrapAt(path, err)
		}
	}
	for i, cd := range gd.Connectors {
		path := fmt.Sprintf("grid.connectors[%d]", i)
		slot, ok := b.db.ConnSlotByName(cd.Slot)
		if !ok {
			return nil, at(path+".slot", "unknown connector slot %q", cd.Slot)
		}
		cls, ok := b.db.ConnClassByName(cd.Class)
		if !ok {
			return nil, at(path+".class", "unknown connector class %q", cd.Class)
		}
		conn := grid.Connector{
			Cell:    cellOf(cd.Cell),
			Slot:    slot,
			Class:   cls,
			Naming:  naming.NoNaming,
			Tile:    cd.Tile,
			TileFar: cd.TileFar,
		}
		if cd.Target != nil {
			conn.Target, conn.HasTarget = cellOf(*cd.Target), true
		}
		if cd.Naming != "" {
			n, ok := b.ndb.ConnNamingByName(cd.Naming)
			if !ok {
				return nil, at(path+".naming", "unknown connector naming %q", cd.Naming)
			}
			conn.Naming = n
		}
		if _, err := g.AddConnector(conn); err != nil {
			return nil, wrapAt(path, err)
		}
	}
	for i, ec := range gd.ExtraConns {
		path := fmt.Sprintf("grid.extra_conns[%d]", i)
		from, err := b.gridWire(path+".from", ec.From)
		if err != nil {
			return nil, err
		}
		to, err := b.gridWire(path+".to", ec.To)
		if err != nil {
			return nil, err
		}
		g.AddExtraConn(from, to)
	}
	for i, bh := range gd.Blackholes {
		w, err := b.gridWire(fmt.Sprintf("grid.blackholes[%d]", i), bh)
		if err != nil {
			return nil, err
		}
		g.AddBlackhole(w)
	}
	return g, nil
}
