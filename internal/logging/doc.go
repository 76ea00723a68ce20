// Package logging configures the process-wide structured logger.
//
// swindex logs JSON records through log/slog into a size-rotated file under
// the user state directory, optionally mirrored to stderr. Commands call
// Setup once at startup and install the returned logger as the slog
// default; the returned cleanup function closes the file.
package logging
