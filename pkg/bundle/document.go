package bundle

// Document is the YAML form of a model bundle.
type Document struct {
	ConnSlots   []string        `yaml:"conn_slots"`
	Wires       []WireDoc       `yaml:"wires"`
	TileClasses []TileClassDoc  `yaml:"tile_classes"`
	ConnClasses []ConnClassDoc  `yaml:"conn_classes"`
	TileNamings []TileNamingDoc `yaml:"tile_namings"`
	ConnNamings []ConnNamingDoc `yaml:"conn_namings"`
	Grid        GridDoc         `yaml:"grid"`
}

type WireDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	Slot string `yaml:"slot"`
	Src  string `yaml:"src"`
}

type MuxDoc struct {
	Dst  string   `yaml:"dst"`
	Srcs []string `yaml:"srcs"`
}

type BelPinDoc struct {
	Name   string   `yaml:"name"`
	Dir    string   `yaml:"dir"`
	Wires  []string `yaml:"wires"`
	IntfIn bool     `yaml:"intf_in"`
}

type BelDoc struct {
	Name string      `yaml:"name"`
	Pins []BelPinDoc `yaml:"pins"`
}

type IntfDoc struct {
	Wire string   `yaml:"wire"`
	Kind string   `yaml:"kind"`
	Srcs []string `yaml:"srcs"`
	Iri  int      `yaml:"iri"`
	Pin  string   `yaml:"pin"`
}

type TileClassDoc struct {
	Name  string    `yaml:"name"`
	Cells int       `yaml:"cells"`
	Muxes []MuxDoc  `yaml:"muxes"`
	Bels  []BelDoc  `yaml:"bels"`
	Intfs []IntfDoc `yaml:"intfs"`
}

type ConnWireDoc struct {
	Wire string `yaml:"wire"`
	Kind string `yaml:"kind"`
	Src  string `yaml:"src"`
}

type ConnClassDoc struct {
	Name  string        `yaml:"name"`
	Slot  string        `yaml:"slot"`
	Wires []ConnWireDoc `yaml:"wires"`
}

type PipDoc struct {
	Tile int    `yaml:"tile"`
	To   string `yaml:"to"`
	From string `yaml:"from"`
}

type ExtPipDoc struct {
	Dst  string `yaml:"dst"`
	Src  string `yaml:"src"`
	Tile int    `yaml:"tile"`
	To   string `yaml:"to"`
	From string `yaml:"from"`
}

type BelPinNamingDoc struct {
	Name    string            `yaml:"name"`
	NameFar string            `yaml:"name_far"`
	Pips    []PipDoc          `yaml:"pips"`
	IntPips map[string]PipDoc `yaml:"int_pips"`
	IntfOut bool              `yaml:"intf_out"`
}

type BelNamingDoc struct {
	Tile     int                        `yaml:"tile"`
	SiteKind string                     `yaml:"site_kind"`
	Pins     map[string]BelPinNamingDoc `yaml:"pins"`
}

// IntfNameDoc is any interface or connector naming variant; Kind selects
// which fields apply.
type IntfNameDoc struct {
	Kind     string `yaml:"kind"`
	Name     string `yaml:"name"`
	Out      string `yaml:"out"`
	In       string `yaml:"in"`
	Delay    string `yaml:"delay"`
	PreDelay string `yaml:"pre_delay"`
	PinOut   string `yaml:"pin_out"`
	PinIn    string `yaml:"pin_in"`
	FarOut   string `yaml:"far_out"`
	FarIn    string `yaml:"far_in"`
}

type IriNamingDoc struct {
	Tile int    `yaml:"tile"`
	Kind string `yaml:"kind"`
}

type TileNamingDoc struct {
	Name     string                  `yaml:"name"`
	Wires    map[string]string       `yaml:"wires"`
	WireBufs map[string]PipDoc       `yaml:"wire_bufs"`
	ExtPips  []ExtPipDoc             `yaml:"ext_pips"`
	Bels     map[string]BelNamingDoc `yaml:"bels"`
	IntfIn   map[string]IntfNameDoc  `yaml:"intf_in"`
	IntfOut  map[string]IntfNameDoc  `yaml:"intf_out"`
	Iris     []IriNamingDoc          `yaml:"iris"`
}

type ConnNamingDoc struct {
	Name   string                 `yaml:"name"`
	Out    map[string]IntfNameDoc `yaml:"out"`
	InNear map[string]string      `yaml:"in_near"`
	InFar  map[string]IntfNameDoc `yaml:"in_far"`
}

type GridTileDoc struct {
	Class   string   `yaml:"class"`
	Cells   [][2]int `yaml:"cells"`
	Naming  string   `yaml:"naming"`
	Names   []string `yaml:"names"`
	TieName string   `yaml:"tie_name"`
	TieTile int      `yaml:"tie_tile"`
	Bels    []string `yaml:"bels"`
	Iris    []string `yaml:"iris"`
}

type GridConnectorDoc struct {
	Cell    [2]int  `yaml:"cell"`
	Slot    string  `yaml:"slot"`
	Class   string  `yaml:"class"`
	Naming  string  `yaml:"naming"`
	Target  *[2]int `yaml:"target"`
	Tile    string  `yaml:"tile"`
	TileFar string  `yaml:"tile_far"`
}

type GridWireDoc struct {
	Cell [2]int `yaml:"cell"`
	Wire string `yaml:"wire"`
}

type TieDoc struct {
	Kind   string `yaml:"kind"`
	Gnd    string `yaml:"gnd"`
	Vcc    string `yaml:"vcc"`
	Pullup string `yaml:"pullup"`
}

type ExtraConnDoc struct {
	From GridWireDoc `yaml:"from"`
	To   GridWireDoc `yaml:"to"`
}

type GridDoc struct {
	Cols       int                `yaml:"cols"`
	Rows       int                `yaml:"rows"`
	Tie        TieDoc             `yaml:"tie"`
	Tiles      []GridTileDoc      `yaml:"tiles"`
	Connectors []GridConnectorDoc `yaml:"connectors"`
	ExtraConns []ExtraConnDoc     `yaml:"extra_conns"`
	Blackholes []GridWireDoc      `yaml:"blackholes"`
}
