//go:build windows

package hostdns

import "golang.org/x/sys/windows"

func osMajorVersion() uint32 {
	return windows.RtlGetVersion().MajorVersion
}
