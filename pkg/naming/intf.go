package naming

// IntfWireInNaming names the physical path of an interface input. It is one
// of IntfInSimple, IntfInBuf, IntfInTestBuf, IntfInDelay, IntfInIri or
// IntfInIriDelay.
type IntfWireInNaming interface {
	isIntfWireIn()
}

// IntfInSimple is an input with no adapter logic.
type IntfInSimple struct {
	Name string
}

// IntfInBuf is an input buffered NameOut <- NameIn.
type IntfInBuf struct {
	NameOut string
	NameIn  string
}

// IntfInTestBuf is an input whose buffered copy NameOut feeds test muxes.
type IntfInTestBuf struct {
	NameOut string
	NameIn  string
}

// IntfInDelay is an input with an optional delay: NameOut is driven from
// NameIn either directly or through NameDelay.
type IntfInDelay struct {
	NameOut   string
	NameDelay string
	NameIn    string
}

// IntfInIri is an input routed NameIn -> NamePinIn, through the iri site,
// then NamePinOut -> NameOut.
type IntfInIri struct {
	NameOut    string
	NamePinOut string
	NamePinIn  string
	NameIn     string
}

// IntfInIriDelay is IntfInIri where the site output NamePinOut feeds
// NamePreDelay, and NameOut is driven from NamePreDelay either directly or
// through NameDelay.
type IntfInIriDelay struct {
	NameOut      string
	NameDelay    string
	NamePreDelay string
	NamePinOut   string
	NamePinIn    string
	NameIn       string
}

func (IntfInSimple) isIntfWireIn()   {}
func (IntfInBuf) isIntfWireIn()      {}
func (IntfInTestBuf) isIntfWireIn()  {}
func (IntfInDelay) isIntfWireIn()    {}
func (IntfInIri) isIntfWireIn()      {}
func (IntfInIriDelay) isIntfWireIn() {}

// IntfWireOutNaming names an interface output. It is IntfOutSimple or
// IntfOutBuf.
type IntfWireOutNaming interface {
	isIntfWireOut()
}

// IntfOutSimple is an output named directly.
type IntfOutSimple struct {
	Name string
}

// IntfOutBuf is an output driven through NameOut <- NameIn.
type IntfOutBuf struct {
	NameOut string
	NameIn  string
}

func (IntfOutSimple) isIntfWireOut() {}
func (IntfOutBuf) isIntfWireOut()    {}
