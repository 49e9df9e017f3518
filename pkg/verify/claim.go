package verify

import (
	"sort"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

func (v *Verifier) lookup(rw RawWire) (rawdump.NodeOrWire, bool) {
	return v.Part.LookupWire(rw.Crd, rw.Name)
}

// claimRaw marks a physical identity as accounted for.
func (v *Verifier) claimRaw(nw rawdump.NodeOrWire, rw RawWire) {
	var was bool
	if nw.IsNode() {
		was = v.claimedNodes.Claim(nw.Node)
	} else {
		was = v.claimedWires[nw.Crd].Claim(nw.Wire)
	}
	if was {
		v.emit(diag.DoubleClaimedNode, v.tileName(rw.Crd), "%s", rw.Name)
	}
}

func (v *Verifier) isClaimed(nw rawdump.NodeOrWire) bool {
	if nw.IsNode() {
		return v.claimedNodes.Get(nw.Node)
	}
	return v.claimedWires[nw.Crd].Get(nw.Wire)
}

// IsClaimed reports whether the wire called name in the tile at crd has been
// claimed. A wire that does not resolve is reported and counts as
// unclaimed.
func (v *Verifier) IsClaimed(crd rawdump.Coord, name string) bool {
	nw, ok := v.lookup(RawWire{Crd: crd, Name: name})
	if !ok {
		v.emit(diag.MissingNodeWire, v.tileName(crd), "%s", name)
		return false
	}
	return v.isClaimed(nw)
}

// ClaimNet claims the node the references resolve to. All references must
// land on the same node; the first one found wins.
func (v *Verifier) ClaimNet(refs ...RawWire) {
	var nw rawdump.NodeOrWire
	found := false
	for _, rw := range refs {
		cnw, ok := v.lookup(rw)
		if !ok {
			v.emit(diag.MissingNodeWire, v.tileName(rw.Crd), "%s", rw.Name)
			continue
		}
		if !found {
			nw, found = cnw, true
			v.claimRaw(cnw, rw)
		} else if cnw != nw {
			v.emit(diag.NodeMismatch, v.tileName(rw.Crd), "%s", rw.Name)
		}
	}
}

// VerifyNet checks that the references land on one node without claiming
// it.
func (v *Verifier) VerifyNet(refs ...RawWire) {
	var nw rawdump.NodeOrWire
	found := false
	for _, rw := range refs {
		cnw, ok := v.lookup(rw)
		if !ok {
			v.emit(diag.MissingWire, v.tileName(rw.Crd), "%s", rw.Name)
			continue
		}
		if !found {
			nw, found = cnw, true
		} else if cnw != nw {
			v.emit(diag.NodeMismatch, v.tileName(rw.Crd), "%s", rw.Name)
		}
	}
}

// ClaimVccNode claims a node driven by the global supply. Any number of
// references to the same node claim it once.
func (v *Verifier) ClaimVccNode(rw RawWire) {
	nw, ok := v.lookup(rw)
	if !ok {
		v.emit(diag.MissingVccNodeWire, v.tileName(rw.Crd), "%s", rw.Name)
		return
	}
	if v.vccNodes.insert(nw) {
		v.claimRaw(nw, rw)
	}
}

// ClaimDummyIn claims a node that is only ever read, once.
func (v *Verifier) ClaimDummyIn(rw RawWire) {
	if nw, ok := v.lookup(rw); ok && v.dummyIn.insert(nw) {
		v.claimRaw(nw, rw)
	}
}

// ClaimDummyOut claims a node that is only ever driven, once.
func (v *Verifier) ClaimDummyOut(rw RawWire) {
	if nw, ok := v.lookup(rw); ok && v.dummyOut.insert(nw) {
		v.claimRaw(nw, rw)
	}
}

// ClaimPip claims the pip to <- from in the tile at crd.
func (v *Verifier) ClaimPip(crd rawdump.Coord, to, from string) {
	tname := v.tileName(crd)
	wt, ok := v.Part.WireByName(to)
	if !ok {
		v.emit(diag.MissingPipDestWire, tname, "%s", to)
		return
	}
	wf, ok := v.Part.WireByName(from)
	if !ok {
		v.emit(diag.MissingPipSrcWire, tname, "%s", from)
		return
	}
	v.claimPipID(crd, wt, wf)
}

func (v *Verifier) claimPipID(crd rawdump.Coord, wt, wf rawdump.WireID) {
	tile := v.Part.Tile(crd)
	tname := v.tileName(crd)
	if tile == nil {
		v.emit(diag.MissingPip, tname, "%s <- %s", v.Part.WireName(wt), v.Part.WireName(wf))
		return
	}
	tk := v.Part.TileKind(tile.Kind)
	idx, ok := tk.Pip(wf, wt)
	if !ok {
		v.emit(diag.MissingPip, tname, "%s <- %s", v.Part.WireName(wt), v.Part.WireName(wf))
		return
	}
	if v.claimedPips[crd].Claim(idx) {
		v.emit(diag.DoubleClaimedPip, tname, "%s <- %s", v.Part.WireName(wt), v.Part.WireName(wf))
	}
}

// ClaimSite claims the site instance called name in the tile at crd and
// checks its kind and pins against the expected ones.
func (v *Verifier) ClaimSite(crd rawdump.Coord, name, kind string, pins []SitePin) {
	tile := v.Part.Tile(crd)
	tname := v.tileName(crd)
	if tile == nil {
		v.emit(diag.MissingSite, tname, "%s", name)
		return
	}
	tk := v.Part.TileKind(tile.Kind)
	for i, inst := range tile.Sites {
		if inst == "" || inst != name {
			continue
		}
		sid := rawdump.TkSiteID(i)
		site := &tk.Sites[i]
		if v.claimedSites[crd].Claim(sid) {
			v.emit(diag.DoubleClaimedSite, tname, "%s", name)
		}
		if site.Kind != kind {
			v.emit(diag.MismatchedSiteKind, tname, "%s %s %s", name, kind, site.Kind)
		}
		extra := make(map[string]bool, len(site.Pins))
		for _, p := range site.Pins {
			extra[p.Name] = true
		}
		for _, pin := range pins {
			tkp, ok := site.Pin(pin.Name)
			if !ok {
				v.emit(diag.MissingPin, tname, "%s %s %s", name, kind, pin.Name)
				continue
			}
			delete(extra, pin.Name)
			if tkp.Dir != pin.Dir {
				v.emit(diag.PinDirMismatch, tname, "%s %s %s %s %s", name, kind, pin.Name, tkp.Dir, pin.Dir)
			}
			actual := ""
			if tkp.Wire != rawdump.NoWire {
				actual = v.Part.WireName(tkp.Wire)
			}
			switch {
			case actual != "" && pin.Wire == "":
				v.ClaimNet(RawWire{Crd: crd, Name: actual})
			case actual != pin.Wire:
				v.emit(diag.PinWireMismatch, tname, "%s %s %s %s %s", name, kind, pin.Name, orNone(actual), orNone(pin.Wire))
			}
		}
		names := make([]string, 0, len(extra))
		for p := range extra {
			names = append(names, p)
		}
		sort.Strings(names)
		for _, p := range names {
			v.emit(diag.ExtraPin, tname, "%s %s %s", name, kind, p)
		}
		return
	}
	v.emit(diag.MissingSite, tname, "%s", name)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
