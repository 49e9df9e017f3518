package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// handleConnector verifies the pips a connector drives its output wires
// through.
func (v *Verifier) handleConnector(cc grid.ConnectorCoord) {
	conn := &v.Grid.Connectors[cc]
	cn := v.Grid.ConnNaming(cc)
	if cn == nil || conn.Tile == "" {
		return
	}
	crd, ok := v.XlatTile(conn.Tile)
	if !ok {
		v.emit(diag.MissingTermTile, conn.Tile, "")
		return
	}
	var far rawdump.Coord
	hasFar := false
	if conn.TileFar != "" {
		far, ok = v.XlatTile(conn.TileFar)
		if !ok {
			v.emit(diag.MissingPassTile, conn.TileFar, "")
			return
		}
		hasFar = true
	}
	class := v.DB.ConnClasses[conn.Class]
	for _, w := range cn.OutKeys() {
		wname := v.DB.Wires[w].Name
		wt, ok := v.Grid.ResolveWire(grid.WireCoord{Cell: conn.Cell, Wire: w})
		if !ok {
			continue
		}
		kind, ok := class.Lookup(w)
		if !ok {
			invariant(conn.Tile, wname, "connector %s does not carry a named output", class.Name)
		}
		src, ok := v.connSource(conn, w)
		if !ok {
			invariant(conn.Tile, wname, "connector %s names an output that ends here", class.Name)
		}
		wf, ok := v.Grid.ResolveWire(src)
		if !ok {
			continue
		}

		found := false
		switch on := cn.WiresOut[w].(type) {
		case naming.ConnOutSimple:
			wtf := v.PinIntWire(RawWire{Crd: crd, Name: on.Name}, wt)
			switch k := kind.(type) {
			case intdb.Reflect:
				wfn, ok := cn.WiresInNear[k.Src]
				if !ok {
					invariant(conn.Tile, v.DB.Wires[k.Src].Name, "near input has no name")
				}
				found = v.PinIntWire(RawWire{Crd: crd, Name: wfn}, wf) && wtf
				if found {
					v.ClaimPip(crd, on.Name, wfn)
				}
			case intdb.Pass:
				found = v.passFar(cn, conn, k.Src, crd, far, hasFar, on.Name, wf, wtf)
			}
		case naming.ConnOutBuf:
			wtf := v.PinIntWire(RawWire{Crd: crd, Name: on.NameOut}, wt)
			wff := v.PinIntWire(RawWire{Crd: crd, Name: on.NameIn}, wf)
			found = wtf && wff
			if found {
				v.ClaimPip(crd, on.NameOut, on.NameIn)
			}
		}
		if !found && v.wireData(wt).usedIn && v.wireData(wf).usedOut {
			v.emit(diag.MissingTermPip, conn.Tile, "%s", wname)
		}
	}
}

// passFar handles an output fed from the far side of a pass connector.
func (v *Verifier) passFar(cn *naming.ConnNaming, conn *grid.Connector, src intdb.WireSlotID,
	crd, far rawdump.Coord, hasFar bool, wtn string, wf grid.WireCoord, wtf bool) bool {
	switch fn := cn.WiresInFar[src].(type) {
	case naming.ConnFarSimple:
		ok := v.PinIntWire(RawWire{Crd: crd, Name: fn.Name}, wf) && wtf
		if ok {
			v.ClaimPip(crd, wtn, fn.Name)
		}
		return ok
	case naming.ConnFarBuf:
		ok := v.PinIntWire(RawWire{Crd: crd, Name: fn.NameIn}, wf) && wtf
		if ok {
			v.ClaimNet(RawWire{Crd: crd, Name: fn.Name})
			v.ClaimPip(crd, wtn, fn.Name)
			v.ClaimPip(crd, fn.Name, fn.NameIn)
		}
		return ok
	case naming.ConnFarBufFar:
		if !hasFar {
			invariant(conn.Tile, fn.Name, "far buffer without a far tile")
		}
		ok := v.PinIntWire(RawWire{Crd: far, Name: fn.NameFarIn}, wf) && wtf
		if ok {
			v.ClaimNet(RawWire{Crd: crd, Name: fn.Name}, RawWire{Crd: far, Name: fn.NameFarOut})
			v.ClaimPip(far, fn.NameFarOut, fn.NameFarIn)
			v.ClaimPip(crd, wtn, fn.Name)
		}
		return ok
	}
	invariant(conn.Tile, v.DB.Wires[src].Name, "far input has no name")
	return false
}
