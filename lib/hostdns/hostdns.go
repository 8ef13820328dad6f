// Package hostdns points the host's resolver for the appliance domain at the
// appliance while it is offline.
//
// Each host platform has its own Adapter, chosen once by New. All adapters
// are idempotent: repeating Set with the same arguments, or calling Unset for
// a domain that was never set, succeeds without changing anything. The linux
// adapter is the exception: it changes nothing and always returns ErrUnsupported.
package hostdns

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/paths"
	"github.com/onkernel/appliancectl/lib/platform"
)

var (
	// ErrUnsupported is returned by adapters that cannot change host DNS on their platform
	ErrUnsupported = errors.New("host dns configuration not supported on this platform")

	// ErrUnknownPlatform is returned by New for a platform with no adapter
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrDomainRequired is returned when a domain-keyed operation gets an empty domain
	ErrDomainRequired = errors.New("domain is required")

	// ErrElevation is returned when the privileged command did not succeed
	ErrElevation = errors.New("privileged dns command failed")
)

// DefaultInterface is the host-side adapter of the VMware NAT network.
const DefaultInterface = "VMware Network Adapter VMnet8"

// Adapter maps a domain to a nameserver address on the host.
type Adapter interface {
	Set(ctx context.Context, domain, ip string) error
	Unset(ctx context.Context, domain, ip string) error
}

// Options configures the platform adapters. Zero values pick defaults.
type Options struct {
	Runner      exec.Runner
	TempDir     string
	ResolverDir string // darwin
	Interface   string // windows

	// OSMajorVersion reports the Windows major version. Defaults to the running OS.
	OSMajorVersion func() uint32
}

// New returns the adapter for a host platform.
func New(plat platform.Tag, opts Options) (Adapter, error) {
	if opts.Runner == nil {
		opts.Runner = exec.NewHostRunner(exec.Options{})
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}

	switch plat {
	case platform.Darwin:
		if opts.ResolverDir == "" {
			opts.ResolverDir = paths.DarwinResolverDir
		}
		return &resolverFileAdapter{
			runner: opts.Runner,
			paths:  paths.New(opts.TempDir),
			dir:    opts.ResolverDir,
		}, nil
	case platform.Windows:
		if opts.Interface == "" {
			opts.Interface = DefaultInterface
		}
		if opts.OSMajorVersion == nil {
			opts.OSMajorVersion = osMajorVersion
		}
		return &netshAdapter{
			runner:       opts.Runner,
			iface:        opts.Interface,
			majorVersion: opts.OSMajorVersion,
		}, nil
	case platform.Linux:
		return manualAdapter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, plat)
	}
}
