package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

type stubHit struct {
	nw rawdump.NodeOrWire
	rw RawWire
}

// claimStubs claims stub wires and the pips they terminate. Conditional
// stubs only take what nothing else claimed.
func (v *Verifier) claimStubs() {
	forced := make(nodeSet)
	condOut, condIn := make(nodeSet), make(nodeSet)
	var hits []stubHit
	for _, crd := range v.Part.Coords() {
		tile := v.Part.Tile(crd)
		tk := v.Part.TileKind(tile.Kind)
		for i, tw := range tk.Wires {
			rw := RawWire{Crd: crd, Name: v.Part.WireName(tw.Wire)}
			nw, ok := v.Part.LookupTkWire(crd, rawdump.TkWireID(i))
			if v.stubOuts[tw.Wire] || v.stubIns[tw.Wire] {
				if !ok {
					v.emit(diag.MissingNodeWire, tile.Name, "%s", rw.Name)
				} else if forced.insert(nw) {
					v.claimRaw(nw, rw)
				}
			}
			if !ok || v.isClaimed(nw) {
				continue
			}
			if v.condStubOuts[tw.Wire] && condOut.insert(nw) {
				hits = append(hits, stubHit{nw: nw, rw: rw})
			}
			if (v.condStubIns[tw.Wire] || v.condStubInsTk[tkWire{kind: tile.Kind, wire: tw.Wire}]) && condIn.insert(nw) {
				hits = append(hits, stubHit{nw: nw, rw: rw})
			}
		}
	}
	for _, h := range hits {
		if !v.isClaimed(h.nw) {
			v.claimRaw(h.nw, h.rw)
		}
	}
	for _, crd := range v.Part.Coords() {
		tk := v.Part.TileKind(v.Part.Tile(crd).Kind)
		for _, pip := range tk.Pips {
			nwf, ok := v.Part.LookupWireID(crd, pip.From)
			if !ok {
				continue
			}
			nwt, ok := v.Part.LookupWireID(crd, pip.To)
			if !ok {
				continue
			}
			if v.stubOuts[pip.To] || v.stubIns[pip.From] {
				v.claimPipID(crd, pip.To, pip.From)
				continue
			}
			_, co := condOut[nwt]
			_, ci := condIn[nwf]
			if !co && !ci {
				continue
			}
			// A conditional stub leaves pips someone already took alone.
			if idx, ok := tk.Pip(pip.From, pip.To); ok && v.claimedPips[crd].Get(idx) {
				continue
			}
			v.claimPipID(crd, pip.To, pip.From)
		}
	}
}

// Finish claims stubs, then reports every site, pip and wire of the part
// nobody claimed, minus the skipped categories.
func (v *Verifier) Finish() {
	v.claimStubs()
	if v.skipResidualSites && v.skipResidualPips && v.skipResidualNodes {
		return
	}
	for _, crd := range v.Part.Coords() {
		tile := v.Part.Tile(crd)
		tk := v.Part.TileKind(tile.Kind)
		if !v.skipResidualSites {
			sites := v.claimedSites[crd]
			for i, inst := range tile.Sites {
				if inst != "" && !sites.Get(rawdump.TkSiteID(i)) {
					v.emit(diag.UnclaimedSite, tile.Name, "%s", inst)
				}
			}
		}
		if !v.skipResidualPips {
			pips := v.claimedPips[crd]
			for i, pip := range tk.Pips {
				if pips.Get(rawdump.TkPipID(i)) {
					continue
				}
				_, okf := v.Part.LookupWireID(crd, pip.From)
				_, okt := v.Part.LookupWireID(crd, pip.To)
				if okf && okt {
					v.emit(diag.UnclaimedPip, tile.Name, "%s <- %s", v.Part.WireName(pip.To), v.Part.WireName(pip.From))
				}
			}
		}
		if !v.skipResidualNodes {
			wires := v.claimedWires[crd]
			for i, tw := range tk.Wires {
				name := v.Part.WireName(tw.Wire)
				switch tw.Kind {
				case rawdump.TkWireInternal:
					if !wires.Get(rawdump.TkWireID(i)) {
						v.emit(diag.UnclaimedInternalWire, tile.Name, "%s", name)
					}
				case rawdump.TkWireConnected:
					if tw.ConnIdx >= len(tile.ConnWires) {
						continue
					}
					if n := tile.ConnWires[tw.ConnIdx]; n != rawdump.NoNode && !v.claimedNodes.Get(n) {
						v.emit(diag.UnclaimedConnWire, tile.Name, "%s %d", name, n)
					}
				}
			}
		}
	}
}

// Stats counts claimed resources against the part's totals.
type Stats struct {
	Nodes, NodesClaimed int
	Wires, WiresClaimed int
	Pips, PipsClaimed   int
	Sites, SitesClaimed int
}

// Stats returns claim coverage so far.
func (v *Verifier) Stats() Stats {
	s := Stats{Nodes: v.claimedNodes.Len(), NodesClaimed: v.claimedNodes.Count()}
	for _, crd := range v.Part.Coords() {
		tile := v.Part.Tile(crd)
		tk := v.Part.TileKind(tile.Kind)
		for i, tw := range tk.Wires {
			if tw.Kind != rawdump.TkWireInternal {
				continue
			}
			s.Wires++
			if v.claimedWires[crd].Get(rawdump.TkWireID(i)) {
				s.WiresClaimed++
			}
		}
		s.Pips += v.claimedPips[crd].Len()
		s.PipsClaimed += v.claimedPips[crd].Count()
		for i, inst := range tile.Sites {
			if inst == "" {
				continue
			}
			s.Sites++
			if v.claimedSites[crd].Get(rawdump.TkSiteID(i)) {
				s.SitesClaimed++
			}
		}
	}
	return s
}
