package intdb

import "fmt"

// PinDir is the direction of a bel pin, seen from the bel.
type PinDir int

const (
	PinInput PinDir = iota
	PinOutput
	PinInout
)

func (d PinDir) String() string {
	switch d {
	case PinInput:
		return "input"
	case PinOutput:
		return "output"
	case PinInout:
		return "inout"
	}
	return fmt.Sprintf("PinDir(%d)", int(d))
}

// Mux is a routing multiplexer. Srcs keep declaration order.
type Mux struct {
	Dst  TileWireCoord
	Srcs []TileWireCoord
}

// BelPin is a pin of a bel attached to zero or more routing wires.
// IsIntfIn pins connect through an interface adapter rather than directly to
// general routing.
type BelPin struct {
	Name     string
	Dir      PinDir
	Wires    []TileWireCoord
	IsIntfIn bool
}

// Bel is a logic primitive inside a tile.
type Bel struct {
	Name string
	Pins []BelPin
}

// Pin returns the named pin.
func (b *Bel) Pin(name string) (*BelPin, bool) {
	for i := range b.Pins {
		if b.Pins[i].Name == name {
			return &b.Pins[i], true
		}
	}
	return nil, false
}

// IriPinKind selects the function of an interface-routing site pin.
type IriPinKind int

const (
	IriClk IriPinKind = iota
	IriRst
	IriCe
	IriImux
)

// IriPin is one pin of an interface-routing site. Index is used by Ce and
// Imux pins.
type IriPin struct {
	Kind  IriPinKind
	Index int
}

func (p IriPin) String() string {
	switch p.Kind {
	case IriClk:
		return "CLK"
	case IriRst:
		return "RST"
	case IriCe:
		return fmt.Sprintf("CE%d", p.Index)
	case IriImux:
		return fmt.Sprintf("IMUX%d", p.Index)
	}
	return fmt.Sprintf("IriPin(%d)", int(p.Kind))
}

// SitePinIn is the name of the site input pin carrying this signal.
func (p IriPin) SitePinIn() string {
	switch p.Kind {
	case IriClk:
		return "CLK"
	case IriRst:
		return "RST"
	case IriCe:
		return fmt.Sprintf("CE%d", p.Index)
	default:
		return fmt.Sprintf("IMUX_IN%d", p.Index)
	}
}

// SitePinOut is the name of the site output pin carrying this signal.
func (p IriPin) SitePinOut() string {
	switch p.Kind {
	case IriClk:
		return "CLK_O"
	case IriRst:
		return "RST_O"
	case IriCe:
		return fmt.Sprintf("CE%d_O", p.Index)
	default:
		return fmt.Sprintf("IMUX_O%d", p.Index)
	}
}

// ParseIriPin parses the String form of an IriPin.
func ParseIriPin(s string) (IriPin, error) {
	switch s {
	case "CLK":
		return IriPin{Kind: IriClk}, nil
	case "RST":
		return IriPin{Kind: IriRst}, nil
	}
	var idx int
	if _, err := fmt.Sscanf(s, "CE%d", &idx); err == nil {
		return IriPin{Kind: IriCe, Index: idx}, nil
	}
	if _, err := fmt.Sscanf(s, "IMUX%d", &idx); err == nil {
		return IriPin{Kind: IriImux, Index: idx}, nil
	}
	return IriPin{}, fmt.Errorf("intdb: unknown iri pin %q", s)
}

// IntfInfo describes an interface adapter on a tile wire. It is one of
// InputDelay, OutputTestMux, InputIri or InputIriDelay.
type IntfInfo interface {
	isIntfInfo()
}

// InputDelay is an input with a selectable delay element.
type InputDelay struct{}

// OutputTestMux is an output that can be driven from test sources.
type OutputTestMux struct {
	Srcs []TileWireCoord
}

// InputIri is an input routed through pin Pin of interface-routing site Iri.
type InputIri struct {
	Iri IriID
	Pin IriPin
}

// InputIriDelay is InputIri with a delay element after the site.
type InputIriDelay struct {
	Iri IriID
	Pin IriPin
}

func (InputDelay) isIntfInfo()    {}
func (OutputTestMux) isIntfInfo() {}
func (InputIri) isIntfInfo()      {}
func (InputIriDelay) isIntfInfo() {}

// Intf binds an adapter to the wire it serves.
type Intf struct {
	Wire TileWireCoord
	Info IntfInfo
}

// TileClass is the abstract content of a family of tiles.
type TileClass struct {
	Name     string
	NumCells int
	Muxes    []Mux
	Bels     []Bel
	Intfs    []Intf
}

// Bel returns the bel with the given name.
func (tc *TileClass) Bel(name string) (BelID, bool) {
	for i := range tc.Bels {
		if tc.Bels[i].Name == name {
			return BelID(i), true
		}
	}
	return 0, false
}

// NumIris is one past the highest iri id any interface adapter uses.
func (tc *TileClass) NumIris() int {
	n := 0
	for _, in := range tc.Intfs {
		var iri IriID = -1
		switch ii := in.Info.(type) {
		case InputIri:
			iri = ii.Iri
		case InputIriDelay:
			iri = ii.Iri
		}
		if int(iri)+1 > n {
			n = int(iri) + 1
		}
	}
	return n
}

// ConnectorWire says what happens to a branch wire at a connector. It is
// one of BlackHole, Reflect or Pass.
type ConnectorWire interface {
	isConnectorWire()
}

// BlackHole wires end at the connector.
type BlackHole struct{}

// Reflect wires continue as Src in the same cell.
type Reflect struct {
	Src WireSlotID
}

// Pass wires continue as Src in the connector's target cell.
type Pass struct {
	Src WireSlotID
}

func (BlackHole) isConnectorWire() {}
func (Reflect) isConnectorWire()   {}
func (Pass) isConnectorWire()      {}

// ConnWire is one entry of a connector class.
type ConnWire struct {
	Wire WireSlotID
	Kind ConnectorWire
}

// ConnClass describes a connector joining a cell to its neighbour in Slot.
// Wires is ordered by wire slot.
type ConnClass struct {
	Name  string
	Slot  ConnSlotID
	Wires []ConnWire

	index map[WireSlotID]int
}

func (cc *ConnClass) reindex() {
	cc.index = make(map[WireSlotID]int, len(cc.Wires))
	for i, cw := range cc.Wires {
		cc.index[cw.Wire] = i
	}
}

// Lookup returns the behaviour of a wire at this connector.
func (cc *ConnClass) Lookup(w WireSlotID) (ConnectorWire, bool) {
	if len(cc.index) != len(cc.Wires) {
		cc.reindex()
	}
	i, ok := cc.index[w]
	if !ok {
		return nil, false
	}
	return cc.Wires[i].Kind, true
}
