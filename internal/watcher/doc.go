// Package watcher observes software metadata locations for changes and
// delivers them as debounced batches, so a repository update touching
// hundreds of files triggers one cache refresh instead of hundreds.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: polling for environments where fsnotify fails (network
//     mounts, some container volumes)
//
// Only changes that can affect component metadata are reported: catalog
// XML and YAML payloads, optionally gzip-compressed, plus directories
// that may gain such files.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() {
//	    _ = w.Start(ctx, []string{"/usr/share/swcatalog/xml"})
//	}()
//
//	for batch := range w.Events() {
//	    // refresh the affected sections
//	    _ = batch
//	}
package watcher
