package stubcfg

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/verify"
)

// Apply configures v from the file. It is meant to run as the pre hook of
// verify.Verify. References to unknown tiles, slots or classes are errors;
// unknown stub wire names are not, since a stub list is shared across the
// parts of a family.
func (f *File) Apply(v *verify.Verifier) error {
	for _, s := range f.Stmts {
		if err := apply(v, s); err != nil {
			return fmt.Errorf("%s: %w", s.Pos, err)
		}
	}
	return nil
}

func apply(v *verify.Verifier, s *Stmt) error {
	switch {
	case s.Stub != nil:
		st := s.Stub
		switch {
		case st.Dir == "out" && st.Cond:
			v.KillStubOutCond(st.Wire)
		case st.Dir == "out":
			v.KillStubOut(st.Wire)
		case st.Cond && st.TileKind != "":
			v.KillStubInCondTileKind(st.TileKind, st.Wire)
		case st.Cond:
			v.KillStubInCond(st.Wire)
		default:
			v.KillStubIn(st.Wire)
		}

	case s.Vcc != nil:
		crd, ok := v.XlatTile(s.Vcc.Tile)
		if !ok {
			return fmt.Errorf("unknown tile %q", s.Vcc.Tile)
		}
		v.ClaimVccNode(verify.RawWire{Crd: crd, Name: s.Vcc.Wire})

	case s.Alias != nil && s.Alias.Kind == "intf":
		from, ok := v.Grid.ParseWire(s.Alias.From)
		if !ok {
			return fmt.Errorf("unknown wire %q", s.Alias.From)
		}
		to, ok := v.Grid.ParseWire(s.Alias.To)
		if !ok {
			return fmt.Errorf("unknown wire %q", s.Alias.To)
		}
		v.AliasIntfInt(from, to)

	case s.Alias != nil:
		from, ok := v.DB.WireByName(s.Alias.From)
		if !ok {
			return fmt.Errorf("unknown wire slot %q", s.Alias.From)
		}
		to, ok := v.DB.WireByName(s.Alias.To)
		if !ok {
			return fmt.Errorf("unknown wire slot %q", s.Alias.To)
		}
		v.AliasWireSlot(from, to)

	case s.Residual != nil:
		switch s.Residual.What {
		case "pips":
			v.SkipResidualPips()
		case "sites":
			v.SkipResidualSites()
		case "nodes":
			v.SkipResidualNodes()
		case "all":
			v.SkipResidual()
		}

	case s.Pin != nil:
		v.SkipBelPin(s.Pin.Bel, s.Pin.Pin)

	case s.ClassPip != nil:
		cp := s.ClassPip
		cls, ok := v.DB.TileClassByName(cp.Class)
		if !ok {
			return fmt.Errorf("unknown tile class %q", cp.Class)
		}
		dst, ok := v.DB.ParseTileWire(cp.Dst)
		if !ok {
			return fmt.Errorf("unknown wire %q", cp.Dst)
		}
		src, ok := v.DB.ParseTileWire(cp.Src)
		if !ok {
			return fmt.Errorf("unknown wire %q", cp.Src)
		}
		if cp.Op == "skip" {
			v.SkipTileClassPip(cls, dst, src)
		} else {
			v.InjectTileClassPip(cls, dst, src)
		}
	}
	return nil
}
