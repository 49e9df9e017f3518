package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// rawTiles maps the raw tiles of a grid tile to physical coordinates.
type rawTiles map[naming.RawTileID]rawdump.Coord

func (r rawTiles) at(id naming.RawTileID, tile string) rawdump.Coord {
	crd, ok := r[id]
	if !ok {
		invariant(tile, "", "raw tile %d is not named", id)
	}
	return crd
}

// tileCrds translates the raw tile names of a grid tile. It reports a
// missing raw tile and fails on the first name that does not translate.
func (v *Verifier) tileCrds(tcrd grid.TileCoord) (rawTiles, bool) {
	crds := make(rawTiles)
	for i, name := range v.Grid.Tiles[tcrd].Names {
		if name == "" {
			continue
		}
		crd, ok := v.XlatTile(name)
		if !ok {
			v.emit(diag.MissingIntTile, name, "")
			return nil, false
		}
		crds[naming.RawTileID(i)] = crd
	}
	return crds, true
}

func (v *Verifier) tiePin(w intdb.WireSlotID) (string, bool) {
	switch v.DB.Wires[w].Kind.Tag {
	case intdb.WireTie0:
		return v.Grid.TiePinGnd, true
	case intdb.WireTie1:
		return v.Grid.TiePinVcc, true
	case intdb.WireTiePullup:
		return v.Grid.TiePinPullup, true
	}
	return "", false
}

type tieExtra struct {
	wire intdb.WireSlotID
	name string
}

// tileRun carries the per-tile state of handleTile.
type tileRun struct {
	v       *Verifier
	tcrd    grid.TileCoord
	tile    *grid.Tile
	class   *intdb.TileClass
	naming  *naming.TileNaming
	crds    rawTiles
	def     rawdump.Coord
	tname   string
	pinned  map[intdb.TileWireCoord]bool
	missing map[intdb.TileWireCoord]bool
	extras  []tieExtra
	iriPins map[intdb.IriID][]SitePin
}

func (t *tileRun) resolve(tw intdb.TileWireCoord) (grid.WireCoord, bool) {
	return t.v.Grid.ResolveWire(t.v.Grid.TileWire(t.tcrd, tw))
}

func (t *tileRun) name(tw intdb.TileWireCoord) string {
	n, ok := t.naming.Wires[tw]
	if !ok {
		invariant(t.tname, t.v.tileWireString(tw), "wire has no name")
	}
	return n
}

func (t *tileRun) raw(name string) RawWire {
	return RawWire{Crd: t.def, Name: name}
}

// handleTile verifies one grid tile: its mux pips, buffers, tie site, bel
// pins and interface adapters. It returns false when the tile's raw names
// do not translate.
func (v *Verifier) handleTile(tcrd grid.TileCoord) bool {
	tn := v.Grid.TileNaming(tcrd)
	if tn == nil {
		return true
	}
	crds, ok := v.tileCrds(tcrd)
	if !ok {
		return false
	}
	tile := &v.Grid.Tiles[tcrd]
	tname := ""
	if len(tile.Names) > 0 {
		tname = tile.Names[0]
	}
	t := &tileRun{
		v:       v,
		tcrd:    tcrd,
		tile:    tile,
		class:   v.DB.TileClasses[tile.Class],
		naming:  tn,
		crds:    crds,
		def:     crds.at(0, tname),
		tname:   tname,
		pinned:  make(map[intdb.TileWireCoord]bool),
		missing: make(map[intdb.TileWireCoord]bool),
		iriPins: make(map[intdb.IriID][]SitePin),
	}
	t.muxes()
	t.bufs()
	t.tieSite()
	t.bels()
	t.intfs()
	return true
}

func (v *Verifier) isSlotAlias(a, b intdb.WireSlotID) bool {
	if to, ok := v.wireSlotAliases[a]; ok && to == b {
		return true
	}
	to, ok := v.wireSlotAliases[b]
	return ok && to == a
}

// pinCached pins a directly named wire once per tile.
func (t *tileRun) pinCached(tw intdb.TileWireCoord, w grid.WireCoord) bool {
	if t.pinned[tw] {
		return true
	}
	if t.missing[tw] {
		return false
	}
	n, ok := t.naming.Wires[tw]
	if !ok {
		t.missing[tw] = true
		return false
	}
	if t.v.PinIntWire(t.raw(n), w) {
		t.pinned[tw] = true
		return true
	}
	t.missing[tw] = true
	return false
}

func (t *tileRun) muxes() {
	v := t.v
	for _, p := range v.tilePips(t.tile.Class) {
		wt, wf := p.dst, p.src
		if v.DB.Wires[wf.Wire].Kind.Tag == intdb.WireSpecial {
			continue
		}
		if wt.Cell == wf.Cell && v.isSlotAlias(wt.Wire, wf.Wire) {
			continue
		}
		wti, ok := t.resolve(wt)
		if !ok {
			continue
		}
		wftie := v.DB.Wires[wf.Wire].Kind.IsTie()
		var wfi grid.WireCoord
		wfok := false
		if !wftie {
			wfi, wfok = t.resolve(wf)
		}

		found := false
		if en, ok := t.naming.ExtPips[naming.ExtPipKey{Dst: wt, Src: wf}]; ok {
			if crd, ok := t.crds[en.Tile]; ok {
				wtn := RawWire{Crd: crd, Name: en.WireTo}
				wfn := RawWire{Crd: crd, Name: en.WireFrom}
				if wftie {
					if !t.pinned[wf] {
						t.pinned[wf] = true
						v.ClaimNet(wfn)
						t.extras = append(t.extras, tieExtra{wire: wf.Wire, name: en.WireFrom})
					}
					found = v.PinIntWire(wtn, wti)
				} else {
					if !wfok {
						continue
					}
					wtf := v.PinIntWire(wtn, wti)
					wff := v.PinIntWire(wfn, wfi)
					found = wtf && wff
				}
				if found {
					v.ClaimPip(crd, en.WireTo, en.WireFrom)
				}
			}
		} else {
			wtf := t.pinCached(wt, wti)
			var wff bool
			switch {
			case t.pinned[wf]:
				wff = true
			case t.missing[wf]:
				wff = false
			case wftie:
				v.ClaimNet(t.raw(t.name(wf)))
				t.pinned[wf] = true
				wff = true
			default:
				n, named := t.naming.Wires[wf]
				if !named {
					t.missing[wf] = true
					break
				}
				if !wfok {
					continue
				}
				if buf, ok := t.naming.WireBufs[wf]; ok {
					crd := t.crds.at(buf.Tile, t.tname)
					wff = v.PinIntWire(RawWire{Crd: crd, Name: buf.WireFrom}, wfi)
					if wff {
						v.ClaimPip(crd, buf.WireTo, buf.WireFrom)
						v.ClaimNet(RawWire{Crd: crd, Name: buf.WireTo}, t.raw(n))
					}
				} else {
					wff = v.PinIntWire(t.raw(n), wfi)
				}
				if wff {
					t.pinned[wf] = true
				} else {
					t.missing[wf] = true
				}
			}
			found = wtf && wff
			if found {
				v.ClaimPip(t.def, t.name(wt), t.name(wf))
			}
		}
		if found {
			continue
		}
		wtu := v.wireData(wti).usedIn
		wfu := wftie || (wfok && v.wireData(wfi).usedOut)
		if wtu && wfu {
			v.emit(diag.MissingPip, t.tname, "%s %s", v.tileWireString(wt), v.tileWireString(wf))
		}
	}
}

// bufs verifies buffer-kind wires as implicit single-input pips.
func (t *tileRun) bufs() {
	v := t.v
	for _, wt := range t.naming.WireKeys() {
		kind := v.DB.Wires[wt.Wire].Kind
		if kind.Tag != intdb.WireBuf {
			continue
		}
		wf := intdb.TileWireCoord{Cell: wt.Cell, Wire: kind.Src}
		wti, ok := t.resolve(wt)
		if !ok {
			continue
		}
		wfi, ok := t.resolve(wf)
		if !ok {
			continue
		}
		wtn, wfn := t.name(wt), t.name(wf)
		wff := v.PinIntWire(t.raw(wfn), wfi)
		wtf := v.PinIntWire(t.raw(wtn), wti)
		if wff && wtf {
			v.ClaimPip(t.def, wtn, wfn)
		} else if v.wireData(wti).usedIn && v.wireData(wfi).usedOut {
			v.emit(diag.MissingBufPip, t.tname, "%s %s", v.tileWireString(wt), v.tileWireString(wf))
		}
	}
}

// tieSite claims the constant-source site of the tile, if it has one, with
// an output pin per tie wire.
func (t *tileRun) tieSite() {
	v := t.v
	if t.tile.TieName == "" {
		return
	}
	crd := t.crds.at(t.tile.TieRawTile, t.tname)
	var pins []SitePin
	for _, k := range t.naming.WireKeys() {
		pin, ok := v.tiePin(k.Wire)
		if !ok {
			continue
		}
		name := t.naming.Wires[k]
		if !t.pinned[k] {
			v.ClaimNet(RawWire{Crd: crd, Name: name})
		}
		pins = append(pins, SitePin{Name: pin, Dir: rawdump.PinDirOutput, Wire: name})
	}
	for _, e := range t.extras {
		if pin, ok := v.tiePin(e.wire); ok {
			pins = append(pins, SitePin{Name: pin, Dir: rawdump.PinDirOutput, Wire: e.name})
		}
	}
	v.ClaimSite(crd, t.tile.TieName, v.Grid.TieKind, pins)
}

// bels follows every bel pin from its site pin wire through its naming
// hops to the routing wires it serves.
func (t *tileRun) bels() {
	v := t.v
	for _, bel := range t.class.Bels {
		bn, ok := t.naming.Bels[bel.Name]
		if !ok {
			invariant(t.tname, bel.Name, "bel has no naming")
		}
		for _, pin := range bel.Pins {
			if v.skipBelPins[belPin{bel: bel.Name, pin: pin.Name}] {
				continue
			}
			pn, ok := bn.Pins[pin.Name]
			if !ok {
				invariant(t.tname, pin.Name, "pin of bel %s has no naming", bel.Name)
			}
			out := pin.Dir == intdb.PinOutput
			cur := RawWire{Crd: t.crds.at(bn.Tile, t.tname), Name: pn.Name}
			for _, pip := range pn.Pips {
				crd := t.crds.at(pip.Tile, t.tname)
				if out {
					v.ClaimNet(cur, RawWire{Crd: crd, Name: pip.WireFrom})
					v.ClaimPip(crd, pip.WireTo, pip.WireFrom)
					cur = RawWire{Crd: crd, Name: pip.WireTo}
				} else {
					v.ClaimNet(cur, RawWire{Crd: crd, Name: pip.WireTo})
					v.ClaimPip(crd, pip.WireTo, pip.WireFrom)
					cur = RawWire{Crd: crd, Name: pip.WireFrom}
				}
			}
			if len(pn.Pips) == 0 {
				cur.Name = pn.NameFar
			}
			claim := true
			for _, w := range pin.Wires {
				wire, ok := t.resolve(w)
				if !ok {
					continue
				}
				target := cur
				if ip, ok := pn.IntPips[w]; ok {
					crd := t.crds.at(ip.Tile, t.tname)
					v.ClaimPip(crd, ip.WireTo, ip.WireFrom)
					if out {
						v.VerifyNet(cur, RawWire{Crd: crd, Name: ip.WireFrom})
						target = RawWire{Crd: crd, Name: ip.WireTo}
					} else {
						v.VerifyNet(cur, RawWire{Crd: crd, Name: ip.WireTo})
						target = RawWire{Crd: crd, Name: ip.WireFrom}
					}
				} else {
					claim = false
				}
				if pin.IsIntfIn || pn.IsIntfOut {
					if !v.PinIntfWire(target, wire) {
						v.emit(diag.MissingBelPinIntfWire, t.tname, "%s %s", pin.Name, pn.NameFar)
					}
					continue
				}
				if !v.PinIntWire(target, wire) {
					u := v.wireData(wire)
					if (pin.Dir == intdb.PinInput && u.usedOut) ||
						(pin.Dir == intdb.PinOutput && u.usedIn) ||
						(pin.Dir == intdb.PinInout && (u.usedIn || u.usedOut)) {
						v.emit(diag.MissingBelPinIntWire, t.tname, "%s %s", pin.Name, pn.NameFar)
					}
				}
			}
			if claim {
				v.ClaimNet(cur)
			}
		}
	}
}

func (t *tileRun) intfIn(tw intdb.TileWireCoord) naming.IntfWireInNaming {
	n, ok := t.naming.IntfWiresIn[tw]
	if !ok {
		invariant(t.tname, t.v.tileWireString(tw), "interface input has no naming")
	}
	return n
}

// pinOrReport pins a routing wire an interface adapter hangs off.
func (t *tileRun) pinOrReport(name string, tw intdb.TileWireCoord, w grid.WireCoord) {
	if !t.v.PinIntWire(t.raw(name), w) {
		t.v.emit(diag.IntNodeMissing, t.tname, "%s %s", name, t.v.tileWireString(tw))
	}
}

func (t *tileRun) intfs() {
	v := t.v
	for _, intf := range t.class.Intfs {
		wt := intf.Wire
		wti, ok := t.resolve(wt)
		if !ok {
			continue
		}
		switch info := intf.Info.(type) {
		case intdb.InputDelay:
			n, ok := t.intfIn(wt).(naming.IntfInDelay)
			if !ok {
				invariant(t.tname, v.tileWireString(wt), "delay adapter needs delay naming")
			}
			t.pinOrReport(n.NameIn, wt, wti)
			v.PinIntfWire(t.raw(n.NameOut), wti)
			v.ClaimNet(t.raw(n.NameDelay))
			v.ClaimPip(t.def, n.NameDelay, n.NameIn)
			v.ClaimPip(t.def, n.NameOut, n.NameIn)
			v.ClaimPip(t.def, n.NameOut, n.NameDelay)

		case intdb.OutputTestMux:
			var wtn string
			switch on := t.naming.IntfWiresOut[wt].(type) {
			case naming.IntfOutSimple:
				wtn = on.Name
			case naming.IntfOutBuf:
				if v.PinIntfWire(t.raw(on.NameIn), wti) {
					v.ClaimPip(t.def, on.NameOut, on.NameIn)
				}
				wtn = on.NameOut
			default:
				invariant(t.tname, v.tileWireString(wt), "test mux output has no naming")
			}
			t.pinOrReport(wtn, wt, wti)
			for _, wf := range info.Srcs {
				wfi, ok := t.resolve(wf)
				if !ok {
					continue
				}
				var wfn string
				switch n := t.intfIn(wf).(type) {
				case naming.IntfInSimple:
					v.ClaimPip(t.def, wtn, n.Name)
					wfn = n.Name
				case naming.IntfInTestBuf:
					v.ClaimPip(t.def, wtn, n.NameOut)
					wfn = n.NameIn
				case naming.IntfInBuf:
					v.ClaimPip(t.def, wtn, n.NameIn)
					wfn = n.NameIn
				case naming.IntfInDelay:
					v.ClaimPip(t.def, wtn, n.NameOut)
					wfn = n.NameIn
				case naming.IntfInIri:
					v.ClaimPip(t.def, wtn, n.NameOut)
					wfn = n.NameIn
				case naming.IntfInIriDelay:
					v.ClaimPip(t.def, wtn, n.NameOut)
					wfn = n.NameIn
				}
				t.pinOrReport(wfn, wf, wfi)
			}

		case intdb.InputIri:
			n, ok := t.intfIn(wt).(naming.IntfInIri)
			if !ok {
				invariant(t.tname, v.tileWireString(wt), "iri adapter needs iri naming")
			}
			t.pinOrReport(n.NameIn, wt, wti)
			t.iriSitePins(info.Iri, info.Pin, n.NamePinIn, n.NamePinOut)
			v.ClaimPip(t.def, n.NamePinIn, n.NameIn)
			v.ClaimPip(t.def, n.NameOut, n.NamePinOut)
			v.PinIntfWire(t.raw(n.NameOut), wti)

		case intdb.InputIriDelay:
			n, ok := t.intfIn(wt).(naming.IntfInIriDelay)
			if !ok {
				invariant(t.tname, v.tileWireString(wt), "iri delay adapter needs iri delay naming")
			}
			t.pinOrReport(n.NameIn, wt, wti)
			t.iriSitePins(info.Iri, info.Pin, n.NamePinIn, n.NamePinOut)
			v.ClaimPip(t.def, n.NamePinIn, n.NameIn)
			v.ClaimNet(t.raw(n.NamePreDelay))
			v.ClaimPip(t.def, n.NamePreDelay, n.NamePinOut)
			v.ClaimNet(t.raw(n.NameDelay))
			v.ClaimPip(t.def, n.NameDelay, n.NamePreDelay)
			v.ClaimPip(t.def, n.NameOut, n.NamePreDelay)
			v.ClaimPip(t.def, n.NameOut, n.NameDelay)
			v.PinIntfWire(t.raw(n.NameOut), wti)
		}
	}

	for _, wf := range t.naming.IntfWireInKeys() {
		switch n := t.naming.IntfWiresIn[wf].(type) {
		case naming.IntfInTestBuf:
			v.ClaimNet(t.raw(n.NameOut))
			v.ClaimPip(t.def, n.NameOut, n.NameIn)
		case naming.IntfInBuf:
			wfi, ok := t.resolve(wf)
			if ok && v.PinIntfWire(t.raw(n.NameOut), wfi) {
				v.ClaimPip(t.def, n.NameOut, n.NameIn)
			}
		}
	}

	t.iriSites()
}

// iriSitePins records the site pins one interface wire uses on its iri
// site and claims the wires behind them.
func (t *tileRun) iriSitePins(iri intdb.IriID, pin intdb.IriPin, pinIn, pinOut string) {
	t.v.ClaimNet(t.raw(pinIn))
	t.v.ClaimNet(t.raw(pinOut))
	t.iriPins[iri] = append(t.iriPins[iri],
		SitePin{Name: pin.SitePinIn(), Dir: rawdump.PinDirInput, Wire: pinIn},
		SitePin{Name: pin.SitePinOut(), Dir: rawdump.PinDirOutput, Wire: pinOut},
	)
}

func (t *tileRun) iriSites() {
	n := t.class.NumIris()
	for i := 0; i < n; i++ {
		iri := intdb.IriID(i)
		if i >= len(t.tile.IriNames) || t.tile.IriNames[i] == "" {
			continue
		}
		if i >= len(t.naming.Iris) {
			invariant(t.tname, "", "iri %d has no naming", i)
		}
		in := t.naming.Iris[i]
		t.v.ClaimSite(t.crds.at(in.Tile, t.tname), t.tile.IriNames[i], in.Kind, t.iriPins[iri])
	}
}
