package rdsexp

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// Load reads one (part ...) expression from r.
func Load(r io.Reader) (*rawdump.Part, error) {
	exprs, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("rdsexp: parse error: %w", err)
	}
	if len(exprs) != 1 {
		return nil, fmt.Errorf("rdsexp: expected one top-level expression, got %d", len(exprs))
	}
	top, ok := exprs[0].(*List)
	if !ok || top.Head() != "part" {
		return nil, fmt.Errorf("rdsexp: top-level expression is not (part ...)")
	}
	return buildPart(top)
}

// LoadFile reads a part from a file.
func LoadFile(path string) (*rawdump.Part, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rdsexp: %w", err)
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func buildPart(top *List) (*rawdump.Part, error) {
	name, err := GetString(top, 1)
	if err != nil {
		return nil, fmt.Errorf("rdsexp: %w", err)
	}
	family := ""
	if fl, ok := Find(top, "family"); ok {
		if family, err = GetString(fl, 1); err != nil {
			return nil, fmt.Errorf("rdsexp: %w", err)
		}
	}
	b := rawdump.NewBuilder(name, family)
	for _, kl := range FindAll(top, "tile_kind") {
		if err := loadTileKind(b, kl); err != nil {
			return nil, fmt.Errorf("rdsexp: %w", err)
		}
	}
	for _, tl := range FindAll(top, "tile") {
		if err := loadTile(b, tl); err != nil {
			return nil, fmt.Errorf("rdsexp: %w", err)
		}
	}
	for _, cl := range FindAll(top, "connect") {
		var args [4]string
		for i := range args {
			if args[i], err = GetString(cl, i+1); err != nil {
				return nil, fmt.Errorf("rdsexp: %w", err)
			}
		}
		b.Connect(args[0], args[1], args[2], args[3])
	}
	return b.Build()
}

func loadTileKind(b *rawdump.Builder, kl *List) error {
	name, err := GetString(kl, 1)
	if err != nil {
		return err
	}
	kb := b.TileKind(name)
	for _, it := range kl.Items[2:] {
		l, ok := it.(*List)
		if !ok {
			return fmt.Errorf("line %d: tile_kind %s: unexpected atom %s", kl.Line, name, it)
		}
		switch l.Head() {
		case "wire":
			w, err := GetString(l, 1)
			if err != nil {
				return err
			}
			if HasSymbol(l, "conn") {
				kb.Connected(w)
			} else {
				kb.Internal(w)
			}
		case "pip":
			from, err := GetString(l, 1)
			if err != nil {
				return err
			}
			to, err := GetString(l, 2)
			if err != nil {
				return err
			}
			kb.Pip(from, to)
		case "site":
			if err := loadSite(kb, l); err != nil {
				return err
			}
		default:
			return fmt.Errorf("line %d: tile_kind %s: unknown item (%s)", l.Line, name, l.Head())
		}
	}
	return b.Err()
}

func loadSite(kb *rawdump.KindBuilder, sl *List) error {
	slot, err := GetString(sl, 1)
	if err != nil {
		return err
	}
	kind, err := GetString(sl, 2)
	if err != nil {
		return err
	}
	var pins []rawdump.SitePinSpec
	for _, pl := range FindAll(sl, "pin") {
		pname, err := GetString(pl, 1)
		if err != nil {
			return err
		}
		dir, err := GetString(pl, 2)
		if err != nil {
			return err
		}
		spec := rawdump.SitePinSpec{Name: pname}
		switch dir {
		case "in":
			spec.Dir = rawdump.PinDirInput
		case "out":
			spec.Dir = rawdump.PinDirOutput
		case "inout", "bidir":
			spec.Dir = rawdump.PinDirBidir
		default:
			return fmt.Errorf("line %d: pin %s: unknown direction %q", pl.Line, pname, dir)
		}
		if pl.Len() > 3 {
			if spec.Wire, err = GetString(pl, 3); err != nil {
				return err
			}
		}
		pins = append(pins, spec)
	}
	kb.Site(slot, kind, pins...)
	return nil
}

func loadTile(b *rawdump.Builder, tl *List) error {
	x, err := GetInt(tl, 1)
	if err != nil {
		return err
	}
	y, err := GetInt(tl, 2)
	if err != nil {
		return err
	}
	name, err := GetString(tl, 3)
	if err != nil {
		return err
	}
	kind, err := GetString(tl, 4)
	if err != nil {
		return err
	}
	tb := b.Tile(x, y, name, kind)
	for _, sl := range FindAll(tl, "site") {
		slot, err := GetString(sl, 1)
		if err != nil {
			return err
		}
		inst, err := GetString(sl, 2)
		if err != nil {
			return err
		}
		tb.Site(slot, inst)
	}
	for _, ul := range FindAll(tl, "unbound") {
		for i := 1; i < ul.Len(); i++ {
			w, err := GetString(ul, i)
			if err != nil {
				return err
			}
			tb.Unbind(w)
		}
	}
	return b.Err()
}
