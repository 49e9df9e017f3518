package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
)

// PinIntWire binds the routing wire w to the physical wire rw and reports
// whether rw exists. A wire that is both read and driven somewhere must land
// on one physical node everywhere it is pinned; the first pin claims it.
// One-directional wires land on dummy nodes, claimed once per node.
func (v *Verifier) PinIntWire(rw RawWire, w grid.WireCoord) bool {
	if to, ok := v.wireSlotAliases[w.Wire]; ok {
		w.Wire = to
	}
	cnw, ok := v.lookup(rw)
	if !ok {
		return false
	}
	u := v.wireData(w)
	switch {
	case u.usedIn && u.usedOut:
		if !u.hasNode {
			u.node, u.hasNode = cnw, true
			v.claimRaw(cnw, rw)
		} else if u.node != cnw {
			v.emit(diag.IntNodeMismatch, v.tileName(rw.Crd), "%s %s", rw.Name, v.wireString(w))
		}
	case u.usedOut:
		if v.dummyOut.insert(cnw) {
			v.claimRaw(cnw, rw)
		}
	default:
		if v.dummyIn.insert(cnw) {
			v.claimRaw(cnw, rw)
		}
	}
	return true
}

// PinIntfWire binds the interface side of w to rw. Interface identities are
// tracked apart from routing identities.
func (v *Verifier) PinIntfWire(rw RawWire, w grid.WireCoord) bool {
	if to, ok := v.intfIntAliases[w]; ok {
		return v.PinIntWire(rw, to)
	}
	tname := v.tileName(rw.Crd)
	u := v.wireData(w)
	cnw, ok := v.lookup(rw)
	if ok {
		switch {
		case u.hasIntfNode:
			if u.intfNode != cnw {
				v.emit(diag.IntIntfNodeMismatch, tname, "%s %s", rw.Name, v.wireString(w))
			}
		case u.intfMissing:
			v.emit(diag.IntIntfNodeWasMissing, tname, "%s", rw.Name)
			u.intfNode, u.hasIntfNode = cnw, true
			v.ClaimNet(rw)
		default:
			u.intfNode, u.hasIntfNode = cnw, true
			v.ClaimNet(rw)
		}
		return true
	}
	switch {
	case u.hasIntfNode:
		v.emit(diag.IntIntfNodeWireNotFound, tname, "%s", rw.Name)
	case u.intfMissing:
		v.emit(diag.IntIntfWireMissingTwice, tname, "%s", rw.Name)
	default:
		u.intfMissing = true
	}
	return false
}
