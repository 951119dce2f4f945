// Package storage provides file management for downloaded media.
//
// The storage package handles:
//   - Laying out the download tree as one directory per creator
//   - Saving media with atomic write operations
//   - Verifying downloads against their expected size
//   - Sweeping stale partial files left by an interrupted run
//
// The Manager type is the primary interface for storage operations. Writes
// go to a temporary .part file first and are renamed into place only after
// the full stream has been written and verified, so a crash can never leave
// a truncated file under a final name.
//
// Usage:
//
//	manager, err := storage.NewManager("downloads")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dest := manager.PathFor("creatorhandle", mediaID, "jpg")
//	if !manager.Exists(dest) {
//	    _, err = manager.Save(body, dest, contentLength)
//	}
package storage
