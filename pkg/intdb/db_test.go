package intdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWire(t *testing.T) {
	db := New()
	w, err := db.AddWire("A", WireKind{})
	require.NoError(t, err)
	assert.Equal(t, WireSlotID(0), w)

	_, err = db.AddWire("A", WireKind{})
	assert.Error(t, err, "duplicate name")

	_, err = db.AddWire("B", Branch(3))
	assert.Error(t, err, "undeclared slot")

	_, err = db.AddWire("C", Buf(7))
	assert.Error(t, err, "undeclared buffer source")

	s, err := db.AddConnSlot("W")
	require.NoError(t, err)
	b, err := db.AddWire("B", Branch(s))
	require.NoError(t, err)

	got, ok := db.WireByName("B")
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, "1.B", db.WireName(TileWireCoord{Cell: 1, Wire: b}))
}

func TestWireKindTagNames(t *testing.T) {
	for tag := WireRegular; tag <= WireBuf; tag++ {
		got, ok := ParseWireKindTag(tag.String())
		require.True(t, ok, tag.String())
		assert.Equal(t, tag, got)
	}
	_, ok := ParseWireKindTag("bogus")
	assert.False(t, ok)

	assert.True(t, WireKind{Tag: WireTiePullup}.IsTie())
	assert.False(t, WireKind{Tag: WireMuxOut}.IsTie())
}

func TestConnClassLookup(t *testing.T) {
	db := New()
	s, _ := db.AddConnSlot("E")
	a, _ := db.AddWire("A", Branch(s))
	b, _ := db.AddWire("B", WireKind{})
	_, err := db.AddConnClass(&ConnClass{
		Name:  "TERM",
		Slot:  s,
		Wires: []ConnWire{{Wire: a, Kind: Reflect{Src: b}}},
	})
	require.NoError(t, err)

	id, ok := db.ConnClassByName("TERM")
	require.True(t, ok)
	cw, ok := db.ConnClasses[id].Lookup(a)
	require.True(t, ok)
	assert.Equal(t, Reflect{Src: b}, cw)
	_, ok = db.ConnClasses[id].Lookup(b)
	assert.False(t, ok)
}

func TestIriPins(t *testing.T) {
	tests := []struct {
		in      string
		pin     IriPin
		siteIn  string
		siteOut string
	}{
		{"CLK", IriPin{Kind: IriClk}, "CLK", "CLK_O"},
		{"RST", IriPin{Kind: IriRst}, "RST", "RST_O"},
		{"CE2", IriPin{Kind: IriCe, Index: 2}, "CE2", "CE2_O"},
		{"IMUX7", IriPin{Kind: IriImux, Index: 7}, "IMUX_IN7", "IMUX_O7"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParseIriPin(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.pin, p)
			assert.Equal(t, tt.in, p.String())
			assert.Equal(t, tt.siteIn, p.SitePinIn())
			assert.Equal(t, tt.siteOut, p.SitePinOut())
		})
	}
	_, err := ParseIriPin("FOO")
	assert.Error(t, err)
}

func TestNumIris(t *testing.T) {
	tc := &TileClass{
		Intfs: []Intf{
			{Info: InputDelay{}},
			{Info: InputIri{Iri: 0, Pin: IriPin{Kind: IriClk}}},
			{Info: InputIriDelay{Iri: 2, Pin: IriPin{Kind: IriRst}}},
		},
	}
	assert.Equal(t, 3, tc.NumIris())
	assert.Equal(t, 0, (&TileClass{}).NumIris())
}

func TestParseTileWire(t *testing.T) {
	db := New()
	a, _ := db.AddWire("A", WireKind{})
	dotted, _ := db.AddWire("X.Y", WireKind{})

	tests := []struct {
		ref  string
		want TileWireCoord
		ok   bool
	}{
		{"A", TileWireCoord{Wire: a}, true},
		{"2.A", TileWireCoord{Cell: 2, Wire: a}, true},
		{"X.Y", TileWireCoord{Wire: dotted}, true},
		{"1.X.Y", TileWireCoord{Cell: 1, Wire: dotted}, true},
		{"B", TileWireCoord{}, false},
		{"1.B", TileWireCoord{}, false},
	}
	for _, tt := range tests {
		got, ok := db.ParseTileWire(tt.ref)
		assert.Equal(t, tt.ok, ok, tt.ref)
		assert.Equal(t, tt.want, got, tt.ref)
		if ok {
			back, _ := db.ParseTileWire(db.WireName(got))
			assert.Equal(t, got, back)
		}
	}
}
