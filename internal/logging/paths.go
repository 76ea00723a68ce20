package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the directory log files land in, following the XDG
// state directory layout:
//   - $XDG_STATE_HOME/swindex when XDG_STATE_HOME is set
//   - ~/.local/state/swindex otherwise
//
// Falls back to the temp directory when no home directory is available.
func DefaultLogDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "swindex")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "swindex")
	}
	return filepath.Join(home, ".local", "state", "swindex")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "swindex.log")
}
