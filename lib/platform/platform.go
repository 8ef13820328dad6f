// Package platform identifies the host operating system the appliance runs on.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Tag identifies a host platform.
type Tag string

const (
	Darwin  Tag = "darwin"
	Linux   Tag = "linux"
	Windows Tag = "windows"
)

// Current returns the tag for the running binary.
func Current() Tag {
	return Tag(runtime.GOOS)
}

// Parse validates a platform string from settings. Empty means Current.
func Parse(s string) (Tag, error) {
	switch t := Tag(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return Current(), nil
	case Darwin, Linux, Windows:
		return t, nil
	default:
		return "", fmt.Errorf("unknown platform %q (want darwin, linux or windows)", s)
	}
}

// CaseInsensitivePaths reports whether file paths on this platform compare
// without regard to case (default APFS/HFS+ and NTFS volumes).
func (t Tag) CaseInsensitivePaths() bool {
	return t == Darwin || t == Windows
}

// HostType returns the vmrun -T value for this platform.
func (t Tag) HostType() string {
	if t == Darwin {
		return "fusion"
	}
	return "ws"
}

func (t Tag) String() string {
	return string(t)
}
