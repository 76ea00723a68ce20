package component

// Kind classifies what a software component is.
type Kind int

const (
	// KindUnknown is an unrecognized component type.
	KindUnknown Kind = iota
	// KindGeneric is a generic component without a more specific type.
	KindGeneric
	// KindDesktopApp is a GUI desktop application.
	KindDesktopApp
	// KindConsoleApp is a terminal application.
	KindConsoleApp
	// KindWebApp is a web application launched through a browser shim.
	KindWebApp
	// KindAddon extends another component and is not listed on its own.
	KindAddon
	// KindFont is a font collection.
	KindFont
	// KindCodec is a multimedia codec collection.
	KindCodec
	// KindInputMethod is an input method for text entry.
	KindInputMethod
	// KindFirmware is device firmware.
	KindFirmware
	// KindDriver is a hardware driver.
	KindDriver
	// KindLocalization is a language pack.
	KindLocalization
	// KindService is a background service.
	KindService
	// KindRepository is a remote software source definition.
	KindRepository
	// KindOperatingSystem is the operating system itself.
	KindOperatingSystem
	// KindIconTheme is an icon theme.
	KindIconTheme
	// KindRuntime is a shared application runtime.
	KindRuntime
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindGeneric:         "generic",
	KindDesktopApp:      "desktop-application",
	KindConsoleApp:      "console-application",
	KindWebApp:          "web-application",
	KindAddon:           "addon",
	KindFont:            "font",
	KindCodec:           "codec",
	KindInputMethod:     "inputmethod",
	KindFirmware:        "firmware",
	KindDriver:          "driver",
	KindLocalization:    "localization",
	KindService:         "service",
	KindRepository:      "repository",
	KindOperatingSystem: "operating-system",
	KindIconTheme:       "icon-theme",
	KindRuntime:         "runtime",
}

// String returns the catalog string form of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// KindFromString parses a catalog kind string.
// Unrecognized values map to KindUnknown.
func KindFromString(s string) Kind {
	switch s {
	// legacy type name used by very old catalog data
	case "desktop", "desktop-app":
		return KindDesktopApp
	}
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Scope describes where component metadata came from.
type Scope int

const (
	// ScopeUnknown means the origin scope was not set.
	ScopeUnknown Scope = iota
	// ScopeSystem is OS-wide metadata.
	ScopeSystem
	// ScopeUser is metadata private to the current user.
	ScopeUser
)

// String returns the string form of the scope.
func (s Scope) String() string {
	switch s {
	case ScopeSystem:
		return "system"
	case ScopeUser:
		return "user"
	default:
		return "unknown"
	}
}

// ScopeFromString parses a scope string.
func ScopeFromString(s string) Scope {
	switch s {
	case "system":
		return ScopeSystem
	case "user":
		return ScopeUser
	default:
		return ScopeUnknown
	}
}

// MergeKind describes how a merge component combines with a component
// of the same ID that is already indexed.
type MergeKind int

const (
	// MergeKindNone marks a regular, standalone component.
	MergeKindNone MergeKind = iota
	// MergeKindReplace replaces the data of the target component.
	MergeKindReplace
	// MergeKindAppend appends data to the target component.
	MergeKindAppend
	// MergeKindRemoveComponent requests removal of the target component.
	MergeKindRemoveComponent
)

// String returns the catalog string form of the merge kind.
func (m MergeKind) String() string {
	switch m {
	case MergeKindReplace:
		return "replace"
	case MergeKindAppend:
		return "append"
	case MergeKindRemoveComponent:
		return "remove-component"
	default:
		return "none"
	}
}

// MergeKindFromString parses a merge kind string.
func MergeKindFromString(s string) MergeKind {
	switch s {
	case "replace":
		return MergeKindReplace
	case "append":
		return MergeKindAppend
	case "remove-component":
		return MergeKindRemoveComponent
	default:
		return MergeKindNone
	}
}
