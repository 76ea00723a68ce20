package component

// LaunchableKind identifies how a component can be launched.
type LaunchableKind int

const (
	// LaunchableKindUnknown is an unrecognized launch method.
	LaunchableKindUnknown LaunchableKind = iota
	// LaunchableKindDesktopID launches via a desktop-entry ID.
	LaunchableKindDesktopID
	// LaunchableKindService launches via a service unit name.
	LaunchableKindService
	// LaunchableKindCockpitManifest launches via a Cockpit manifest.
	LaunchableKindCockpitManifest
	// LaunchableKindURL launches by opening a URL.
	LaunchableKindURL
)

var launchableKindNames = map[LaunchableKind]string{
	LaunchableKindUnknown:         "unknown",
	LaunchableKindDesktopID:       "desktop-id",
	LaunchableKindService:         "service",
	LaunchableKindCockpitManifest: "cockpit-manifest",
	LaunchableKindURL:             "url",
}

// String returns the string form of the launchable kind.
func (l LaunchableKind) String() string {
	if s, ok := launchableKindNames[l]; ok {
		return s
	}
	return "unknown"
}

// LaunchableKindFromString parses a launchable kind string.
func LaunchableKindFromString(s string) LaunchableKind {
	for k, name := range launchableKindNames {
		if name == s {
			return k
		}
	}
	return LaunchableKindUnknown
}

// Launchable groups launch entries of one kind.
type Launchable struct {
	Kind    LaunchableKind
	Entries []string
}
