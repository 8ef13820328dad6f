//go:build !unix && !windows

package lock

import "os"

// No advisory locking on this platform.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
