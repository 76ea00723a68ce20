package component

// ProvidedKind identifies the type of a public interface a component
// provides to the system.
type ProvidedKind int

const (
	// ProvidedKindUnknown is an unrecognized interface type.
	ProvidedKindUnknown ProvidedKind = iota
	// ProvidedKindLibrary is a shared library name.
	ProvidedKindLibrary
	// ProvidedKindBinary is an executable in PATH.
	ProvidedKindBinary
	// ProvidedKindMediatype is a handled MIME type.
	ProvidedKindMediatype
	// ProvidedKindFont is a font name.
	ProvidedKindFont
	// ProvidedKindModalias is a hardware modalias pattern.
	ProvidedKindModalias
	// ProvidedKindPython2 is a Python 2 module.
	ProvidedKindPython2
	// ProvidedKindPython is a Python 3 module.
	ProvidedKindPython
	// ProvidedKindDBusSystem is a D-Bus system service name.
	ProvidedKindDBusSystem
	// ProvidedKindDBusUser is a D-Bus session/user service name.
	ProvidedKindDBusUser
	// ProvidedKindFirmwareRuntime is runtime-loaded firmware.
	ProvidedKindFirmwareRuntime
	// ProvidedKindFirmwareFlashed is flashed device firmware.
	ProvidedKindFirmwareFlashed
	// ProvidedKindID is another component ID this component provides.
	ProvidedKindID
)

var providedKindNames = map[ProvidedKind]string{
	ProvidedKindUnknown:         "unknown",
	ProvidedKindLibrary:         "lib",
	ProvidedKindBinary:          "bin",
	ProvidedKindMediatype:       "mediatype",
	ProvidedKindFont:            "font",
	ProvidedKindModalias:        "modalias",
	ProvidedKindPython2:         "python2",
	ProvidedKindPython:          "python",
	ProvidedKindDBusSystem:      "dbus-system",
	ProvidedKindDBusUser:        "dbus-user",
	ProvidedKindFirmwareRuntime: "firmware-runtime",
	ProvidedKindFirmwareFlashed: "firmware-flashed",
	ProvidedKindID:              "id",
}

// String returns the string form of the provided kind.
func (p ProvidedKind) String() string {
	if s, ok := providedKindNames[p]; ok {
		return s
	}
	return "unknown"
}

// ProvidedKindFromString parses a provided kind string.
func ProvidedKindFromString(s string) ProvidedKind {
	switch s {
	// aliases seen in older catalog data
	case "mimetype":
		return ProvidedKindMediatype
	case "python3":
		return ProvidedKindPython
	}
	for k, name := range providedKindNames {
		if name == s {
			return k
		}
	}
	return ProvidedKindUnknown
}

// ProvidedElement describes how a provided kind is addressed in stored
// component records: the element name plus an optional type attribute for
// compound kinds (D-Bus bus types, firmware flavors).
type ProvidedElement struct {
	Element string
	Type    string
}

var providedElements = map[ProvidedKind]ProvidedElement{
	ProvidedKindLibrary:         {Element: "library"},
	ProvidedKindBinary:          {Element: "binary"},
	ProvidedKindMediatype:       {Element: "mediatype"},
	ProvidedKindFont:            {Element: "font"},
	ProvidedKindModalias:        {Element: "modalias"},
	ProvidedKindPython2:         {Element: "python2"},
	ProvidedKindPython:          {Element: "python3"},
	ProvidedKindDBusSystem:      {Element: "dbus", Type: "system"},
	ProvidedKindDBusUser:        {Element: "dbus", Type: "user"},
	ProvidedKindFirmwareRuntime: {Element: "firmware", Type: "runtime"},
	ProvidedKindFirmwareFlashed: {Element: "firmware", Type: "flashed"},
	ProvidedKindID:              {Element: "id"},
}

// ElementFor returns the stored-record element mapping for a provided kind.
// The second return is false for kinds that have no record representation.
func ElementFor(kind ProvidedKind) (ProvidedElement, bool) {
	e, ok := providedElements[kind]
	return e, ok
}

// Provided groups the provided interface items of one kind.
type Provided struct {
	Kind  ProvidedKind
	Items []string
}

// HasItem reports whether the given item is present.
func (p *Provided) HasItem(item string) bool {
	for _, it := range p.Items {
		if it == item {
			return true
		}
	}
	return false
}
