package verify

import (
	"github.com/sirupsen/logrus"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/rawdump"
)

// BelHandler checks one bel. It usually ends in VerifyBel.
type BelHandler func(v *Verifier, b *BelContext)

// DefaultBelHandler verifies every bel whose naming carries a site kind.
func DefaultBelHandler(v *Verifier, b *BelContext) {
	if b.Naming.SiteKind == "" {
		return
	}
	v.VerifyBel(b, b.Naming.SiteKind, nil, nil)
}

// Verify runs a complete verification of part against g. pre runs before
// wire classification and is where stubs, aliases and skips are set up;
// bel runs for every bel of every tile; post runs before the residual scan.
// Any hook may be nil. The returned Verifier is finished.
func Verify(part *rawdump.Part, g *grid.ExpandedGrid, pre func(*Verifier), bel BelHandler, post func(*Verifier), opts ...Option) *Verifier {
	v := New(part, g, opts...)
	if pre != nil {
		pre(v)
	}

	v.prepIntWires()
	v.log.WithField("wires", len(v.usage)).Debug("classified wires")

	broken := make(map[grid.TileCoord]bool)
	for i := range g.Tiles {
		if !v.handleTile(grid.TileCoord(i)) {
			broken[grid.TileCoord(i)] = true
		}
	}
	v.log.WithField("tiles", len(g.Tiles)).Debug("handled tiles")

	for i := range g.Connectors {
		v.handleConnector(grid.ConnectorCoord(i))
	}
	v.log.WithField("connectors", len(g.Connectors)).Debug("handled connectors")

	if bel != nil {
		n := 0
		for i := range g.Tiles {
			tcrd := grid.TileCoord(i)
			if broken[tcrd] || g.TileNaming(tcrd) == nil {
				continue
			}
			for id := range g.DB.TileClasses[g.Tiles[i].Class].Bels {
				bel(v, v.GetBel(tcrd, intdb.BelID(id)))
				n++
			}
		}
		v.log.WithField("bels", n).Debug("handled bels")
	}

	if post != nil {
		post(v)
	}
	v.Finish()
	s := v.Stats()
	v.log.WithFields(logrus.Fields{
		"nodes": s.NodesClaimed,
		"pips":  s.PipsClaimed,
		"sites": s.SitesClaimed,
	}).Debug("finished")
	return v
}
