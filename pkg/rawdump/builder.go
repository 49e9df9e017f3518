package rawdump

import "fmt"

// SitePinSpec describes a site pin while building a tile kind. An empty
// Wire leaves the pin unattached.
type SitePinSpec struct {
	Name string
	Dir  PinDir
	Wire string
}

// In is an input pin spec.
func In(name, wire string) SitePinSpec { return SitePinSpec{Name: name, Dir: PinDirInput, Wire: wire} }

// Out is an output pin spec.
func Out(name, wire string) SitePinSpec { return SitePinSpec{Name: name, Dir: PinDirOutput, Wire: wire} }

// Bidir is a bidirectional pin spec.
func Bidir(name, wire string) SitePinSpec { return SitePinSpec{Name: name, Dir: PinDirBidir, Wire: wire} }

// Builder assembles a Part. Every connected wire slot of every tile forms its
// own node unless merged with Connect or left unbound with Unbind. The first
// error is kept and returned by Build; later calls become no-ops.
type Builder struct {
	part    *Part
	err     error
	nodes   *nodeSet
	unbound map[wireInst]bool
	links   [][2]wireInst
}

// NewBuilder starts an empty part.
func NewBuilder(name, family string) *Builder {
	return &Builder{
		part: &Part{
			Name:      name,
			Family:    family,
			wireIndex: make(map[string]WireID),
			kindIndex: make(map[string]TileKindID),
			tiles:     make(map[Coord]*Tile),
			tileNames: make(map[string]Coord),
		},
		nodes:   newNodeSet(),
		unbound: make(map[wireInst]bool),
	}
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("rawdump: "+format, args...)
	}
}

// Err returns the first error recorded so far.
func (b *Builder) Err() error {
	return b.err
}

// Wire interns a wire name.
func (b *Builder) Wire(name string) WireID {
	p := b.part
	if w, ok := p.wireIndex[name]; ok {
		return w
	}
	w := WireID(len(p.wires))
	p.wires = append(p.wires, name)
	p.wireIndex[name] = w
	return w
}

// KindBuilder adds wires, pips and sites to one tile kind.
type KindBuilder struct {
	b  *Builder
	tk *TileKind
}

// TileKind creates a tile kind, or returns the builder for an existing one.
func (b *Builder) TileKind(name string) *KindBuilder {
	p := b.part
	if id, ok := p.kindIndex[name]; ok {
		return &KindBuilder{b: b, tk: p.TileKinds[id]}
	}
	tk := &TileKind{
		Name:      name,
		wireIndex: make(map[WireID]TkWireID),
		pipIndex:  make(map[TkPip]TkPipID),
	}
	p.kindIndex[name] = TileKindID(len(p.TileKinds))
	p.TileKinds = append(p.TileKinds, tk)
	return &KindBuilder{b: b, tk: tk}
}

func (kb *KindBuilder) addWire(name string, kind TkWireKind) {
	w := kb.b.Wire(name)
	if _, dup := kb.tk.wireIndex[w]; dup {
		kb.b.fail("tile kind %s: duplicate wire %s", kb.tk.Name, name)
		return
	}
	tw := TkWire{Wire: w, Kind: kind}
	if kind == TkWireConnected {
		tw.ConnIdx = kb.tk.connCount
		kb.tk.connCount++
	}
	kb.tk.wireIndex[w] = TkWireID(len(kb.tk.Wires))
	kb.tk.Wires = append(kb.tk.Wires, tw)
}

// Internal adds tile-private wires.
func (kb *KindBuilder) Internal(names ...string) *KindBuilder {
	for _, n := range names {
		kb.addWire(n, TkWireInternal)
	}
	return kb
}

// Connected adds wires that join nodes shared with other tiles.
func (kb *KindBuilder) Connected(names ...string) *KindBuilder {
	for _, n := range names {
		kb.addWire(n, TkWireConnected)
	}
	return kb
}

func (kb *KindBuilder) kindWire(name string) (WireID, bool) {
	w, ok := kb.b.part.wireIndex[name]
	if !ok {
		return 0, false
	}
	_, ok = kb.tk.wireIndex[w]
	return w, ok
}

// Pip adds a pip from -> to. Both wires must already belong to the kind.
func (kb *KindBuilder) Pip(from, to string) *KindBuilder {
	wf, okf := kb.kindWire(from)
	wt, okt := kb.kindWire(to)
	if !okf || !okt {
		kb.b.fail("tile kind %s: pip %s -> %s uses unknown wire", kb.tk.Name, from, to)
		return kb
	}
	key := TkPip{From: wf, To: wt}
	if _, dup := kb.tk.pipIndex[key]; dup {
		kb.b.fail("tile kind %s: duplicate pip %s -> %s", kb.tk.Name, from, to)
		return kb
	}
	kb.tk.pipIndex[key] = TkPipID(len(kb.tk.Pips))
	kb.tk.Pips = append(kb.tk.Pips, key)
	return kb
}

// Site adds a site slot with the given pins.
func (kb *KindBuilder) Site(slot, kind string, pins ...SitePinSpec) *KindBuilder {
	for _, s := range kb.tk.Sites {
		if s.Slot == slot {
			kb.b.fail("tile kind %s: duplicate site slot %s", kb.tk.Name, slot)
			return kb
		}
	}
	site := TkSite{Slot: slot, Kind: kind, pinIndex: make(map[string]int)}
	for _, ps := range pins {
		if _, dup := site.pinIndex[ps.Name]; dup {
			kb.b.fail("tile kind %s: site %s: duplicate pin %s", kb.tk.Name, slot, ps.Name)
			return kb
		}
		pin := TkSitePin{Name: ps.Name, Dir: ps.Dir, Wire: NoWire}
		if ps.Wire != "" {
			w, ok := kb.kindWire(ps.Wire)
			if !ok {
				kb.b.fail("tile kind %s: site %s: pin %s uses unknown wire %s", kb.tk.Name, slot, ps.Name, ps.Wire)
				return kb
			}
			pin.Wire = w
		}
		site.pinIndex[ps.Name] = len(site.Pins)
		site.Pins = append(site.Pins, pin)
	}
	kb.tk.Sites = append(kb.tk.Sites, site)
	return kb
}

// TileBuilder names the sites of one tile and unbinds its connected wires.
type TileBuilder struct {
	b    *Builder
	tile *Tile
}

// Tile places a tile of the named kind.
func (b *Builder) Tile(x, y int, name, kind string) *TileBuilder {
	p := b.part
	crd := Coord{X: uint16(x), Y: uint16(y)}
	kid, ok := p.kindIndex[kind]
	if !ok {
		b.fail("tile %s: unknown tile kind %s", name, kind)
		return &TileBuilder{b: b, tile: &Tile{}}
	}
	if _, dup := p.tiles[crd]; dup {
		b.fail("tile %s: coordinate %s already occupied", name, crd)
		return &TileBuilder{b: b, tile: &Tile{}}
	}
	if _, dup := p.tileNames[name]; dup {
		b.fail("duplicate tile name %s", name)
		return &TileBuilder{b: b, tile: &Tile{}}
	}
	t := &Tile{Name: name, Crd: crd, Kind: kid}
	p.tiles[crd] = t
	p.tileNames[name] = crd
	return &TileBuilder{b: b, tile: t}
}

// Site names the instance in the given slot.
func (tb *TileBuilder) Site(slot, instance string) *TileBuilder {
	if tb.tile.Name == "" {
		return tb
	}
	tk := tb.b.part.TileKinds[tb.tile.Kind]
	for i, s := range tk.Sites {
		if s.Slot != slot {
			continue
		}
		for len(tb.tile.Sites) <= i {
			tb.tile.Sites = append(tb.tile.Sites, "")
		}
		tb.tile.Sites[i] = instance
		return tb
	}
	tb.b.fail("tile %s: unknown site slot %s", tb.tile.Name, slot)
	return tb
}

// Unbind leaves a connected wire of the tile without a node.
func (tb *TileBuilder) Unbind(wire string) *TileBuilder {
	if tb.tile.Name == "" {
		return tb
	}
	inst, ok := tb.b.connInst(tb.tile, wire)
	if ok {
		tb.b.unbound[inst] = true
	}
	return tb
}

func (b *Builder) connInst(t *Tile, wire string) (wireInst, bool) {
	p := b.part
	tk := p.TileKinds[t.Kind]
	w, ok := p.wireIndex[wire]
	if ok {
		var twi TkWireID
		twi, ok = tk.wireIndex[w]
		if ok && tk.Wires[twi].Kind == TkWireConnected {
			return wireInst{crd: t.Crd, conn: tk.Wires[twi].ConnIdx}, true
		}
	}
	b.fail("tile %s: %s is not a connected wire", t.Name, wire)
	return wireInst{}, false
}

// Connect merges two connected wires, given by tile name, into one node.
func (b *Builder) Connect(tileA, wireA, tileB, wireB string) *Builder {
	var insts [2]wireInst
	for i, tw := range [2][2]string{{tileA, wireA}, {tileB, wireB}} {
		crd, ok := b.part.tileNames[tw[0]]
		if !ok {
			b.fail("connect: unknown tile %s", tw[0])
			return b
		}
		inst, ok := b.connInst(b.part.tiles[crd], tw[1])
		if !ok {
			return b
		}
		insts[i] = inst
	}
	b.links = append(b.links, insts)
	return b
}

// Build numbers the nodes and returns the part. Node ids follow tile order,
// then connected-wire order within each tile kind.
func (b *Builder) Build() (*Part, error) {
	if b.err != nil {
		return nil, b.err
	}
	p := b.part
	for _, l := range b.links {
		if b.unbound[l[0]] || b.unbound[l[1]] {
			return nil, fmt.Errorf("rawdump: connect: unbound wire slot at %s", l[0].crd)
		}
		b.nodes.union(l[0], l[1])
	}
	p.sortTiles()
	ids := make(map[wireInst]NodeID)
	next := NodeID(0)
	for _, crd := range p.tileOrder {
		t := p.tiles[crd]
		tk := p.TileKinds[t.Kind]
		for len(t.Sites) < len(tk.Sites) {
			t.Sites = append(t.Sites, "")
		}
		t.ConnWires = make([]NodeID, tk.connCount)
		for ci := range t.ConnWires {
			inst := wireInst{crd: crd, conn: ci}
			if b.unbound[inst] {
				t.ConnWires[ci] = NoNode
				continue
			}
			root := b.nodes.find(inst)
			id, ok := ids[root]
			if !ok {
				id = next
				next++
				ids[root] = id
			}
			t.ConnWires[ci] = id
		}
	}
	p.NodeCount = int(next)
	return p, nil
}
