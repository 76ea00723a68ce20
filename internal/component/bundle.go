package component

// BundleKind identifies the packaging system a component ships in.
type BundleKind int

const (
	// BundleKindUnknown means no bundle information is available.
	BundleKindUnknown BundleKind = iota
	// BundleKindPackage is a native distribution package.
	BundleKindPackage
	// BundleKindLimba is a Limba bundle.
	BundleKindLimba
	// BundleKindFlatpak is a Flatpak ref.
	BundleKindFlatpak
	// BundleKindAppImage is an AppImage bundle.
	BundleKindAppImage
	// BundleKindSnap is a Snap package.
	BundleKindSnap
	// BundleKindTarball is a plain tarball.
	BundleKindTarball
	// BundleKindCabinet is a firmware cabinet archive.
	BundleKindCabinet
	// BundleKindLinglong is a Linglong bundle.
	BundleKindLinglong
)

var bundleKindNames = map[BundleKind]string{
	BundleKindUnknown:  "unknown",
	BundleKindPackage:  "package",
	BundleKindLimba:    "limba",
	BundleKindFlatpak:  "flatpak",
	BundleKindAppImage: "appimage",
	BundleKindSnap:     "snap",
	BundleKindTarball:  "tarball",
	BundleKindCabinet:  "cabinet",
	BundleKindLinglong: "linglong",
}

// String returns the catalog string form of the bundle kind.
func (b BundleKind) String() string {
	if s, ok := bundleKindNames[b]; ok {
		return s
	}
	return "unknown"
}

// BundleKindFromString parses a bundle kind string.
func BundleKindFromString(s string) BundleKind {
	for k, name := range bundleKindNames {
		if name == s {
			return k
		}
	}
	return BundleKindUnknown
}

// Bundle associates a component with an installable bundle identifier,
// for example a Flatpak ref or a firmware cabinet name.
type Bundle struct {
	Kind BundleKind
	ID   string
}
