//go:build !windows

package hostdns

// osMajorVersion is only consulted by the windows adapter.
func osMajorVersion() uint32 {
	return 0
}
