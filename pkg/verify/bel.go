package verify

import (
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// BelContext is everything a bel handler needs to know about one bel.
type BelContext struct {
	Tile   grid.TileCoord
	Cell   grid.CellCoord
	Class  string
	Bel    intdb.BelID
	Key    string
	Info   *intdb.Bel
	Naming *naming.BelNaming
	// Name is the site instance name, empty when the bel has no site.
	Name string
	Crds map[naming.RawTileID]rawdump.Coord
}

// Crd is the physical tile holding the bel's site.
func (b *BelContext) Crd() rawdump.Coord {
	crd, ok := b.Crds[b.Naming.Tile]
	if !ok {
		invariant(b.Cell.String(), b.Key, "raw tile %d is not named", b.Naming.Tile)
	}
	return crd
}

func (b *BelContext) pin(name string) naming.BelPinNaming {
	pn, ok := b.Naming.Pins[name]
	if !ok {
		invariant(b.Key, name, "missing pin name")
	}
	return pn
}

// Wire is the site-side wire of pin.
func (b *BelContext) Wire(pin string) RawWire {
	return RawWire{Crd: b.Crd(), Name: b.pin(pin).Name}
}

// WireFar is the routing-side wire of pin.
func (b *BelContext) WireFar(pin string) RawWire {
	return RawWire{Crd: b.Crd(), Name: b.pin(pin).NameFar}
}

// ExtraPin is a site pin outside the abstract bel.
type ExtraPin struct {
	Name string
	Dir  rawdump.PinDir
}

// GetBel builds the context of bel in the tile at tcrd. The tile's raw
// names must translate.
func (v *Verifier) GetBel(tcrd grid.TileCoord, bel intdb.BelID) *BelContext {
	tile := &v.Grid.Tiles[tcrd]
	tc := v.DB.TileClasses[tile.Class]
	info := &tc.Bels[bel]
	crds := make(map[naming.RawTileID]rawdump.Coord)
	for i, name := range tile.Names {
		if name == "" {
			continue
		}
		crd, ok := v.XlatTile(name)
		if !ok {
			invariant(name, info.Name, "raw tile does not exist")
		}
		crds[naming.RawTileID(i)] = crd
	}
	ctx := &BelContext{
		Tile:  tcrd,
		Cell:  tile.Cells[0],
		Class: tc.Name,
		Bel:   bel,
		Key:   info.Name,
		Info:  info,
		Crds:  crds,
	}
	if int(bel) < len(tile.BelNames) {
		ctx.Name = tile.BelNames[bel]
	}
	if tn := v.Grid.TileNaming(tcrd); tn != nil {
		if bn, ok := tn.Bels[info.Name]; ok {
			ctx.Naming = &bn
		}
	}
	if ctx.Naming == nil {
		ctx.Naming = &naming.BelNaming{}
	}
	return ctx
}

// FindBel returns the bel called key in a tile anchored at cell.
func (v *Verifier) FindBel(cell grid.CellCoord, key string) (*BelContext, bool) {
	for _, tcrd := range v.Grid.TilesAt(cell) {
		tc := v.DB.TileClasses[v.Grid.Tiles[tcrd].Class]
		if id, ok := tc.Bel(key); ok {
			return v.GetBel(tcrd, id), true
		}
	}
	return nil, false
}

// FindBelDelta looks for key in the cell dx, dy away from b.
func (v *Verifier) FindBelDelta(b *BelContext, dx, dy int, key string) (*BelContext, bool) {
	c := grid.CellCoord{Col: b.Cell.Col + dx, Row: b.Cell.Row + dy}
	if !v.Grid.Contains(c) {
		return nil, false
	}
	return v.FindBel(c, key)
}

// FindBelWalk steps dx, dy from b until a cell holds key or the grid ends.
func (v *Verifier) FindBelWalk(b *BelContext, dx, dy int, key string) (*BelContext, bool) {
	if dx == 0 && dy == 0 {
		return nil, false
	}
	c := b.Cell
	for {
		c = grid.CellCoord{Col: c.Col + dx, Row: c.Row + dy}
		if !v.Grid.Contains(c) {
			return nil, false
		}
		if ctx, ok := v.FindBel(c, key); ok {
			return ctx, true
		}
	}
}

// FindBelSibling returns the bel called key in b's own cell. It must exist.
func (v *Verifier) FindBelSibling(b *BelContext, key string) *BelContext {
	ctx, ok := v.FindBel(b.Cell, key)
	if !ok {
		invariant(b.Cell.String(), key, "sibling bel not found")
	}
	return ctx
}

func sitePinDir(d intdb.PinDir) rawdump.PinDir {
	switch d {
	case intdb.PinOutput:
		return rawdump.PinDirOutput
	case intdb.PinInout:
		return rawdump.PinDirBidir
	}
	return rawdump.PinDirInput
}

// VerifyBel claims b's site as kind with the bel's own pins minus skip,
// plus extras.
func (v *Verifier) VerifyBel(b *BelContext, kind string, extras []ExtraPin, skip []string) {
	v.VerifyBelDummies(b, kind, extras, skip, nil)
}

// VerifyBelDummies is VerifyBel where the extras named in dummies are
// expected to have no routing.
func (v *Verifier) VerifyBelDummies(b *BelContext, kind string, extras []ExtraPin, skip, dummies []string) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	isDummy := make(map[string]bool, len(dummies))
	for _, d := range dummies {
		isDummy[d] = true
	}
	var pins []SitePin
	for _, p := range b.Info.Pins {
		if skipped[p.Name] || v.skipBelPins[belPin{bel: b.Key, pin: p.Name}] {
			continue
		}
		pins = append(pins, SitePin{Name: p.Name, Dir: sitePinDir(p.Dir), Wire: b.pin(p.Name).Name})
	}
	for _, e := range extras {
		sp := SitePin{Name: e.Name, Dir: e.Dir}
		if !isDummy[e.Name] {
			sp.Wire = b.pin(e.Name).Name
		}
		pins = append(pins, sp)
	}
	if b.Name == "" {
		tile := ""
		if names := v.Grid.Tiles[b.Tile].Names; len(names) > 0 {
			tile = names[0]
		}
		v.emit(diag.MissingSiteName, tile, "%s", b.Key)
		return
	}
	v.ClaimSite(b.Crd(), b.Name, kind, pins)
}
