// Package lock provides an exclusive advisory lock on a file, held for the
// lifetime of one appliancectl invocation.
package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another appliancectl command is running against this appliance")

// Lock is a held lock. Release it when the command finishes.
type Lock struct {
	f *os.File
}

// Acquire takes the lock at path without waiting. The holder's pid is
// written into the file to help diagnose a stuck lock.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. The file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
