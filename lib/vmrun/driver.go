// Package vmrun drives one VMware appliance through the vmrun control utility.
//
// Every method is synchronous and re-queries the hypervisor: the appliance can
// be started, stopped or reconfigured outside this process, so nothing is cached.
package vmrun

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/paths"
	"github.com/onkernel/appliancectl/lib/platform"
	"github.com/samber/lo"
)

// Default guest credentials baked into the appliance image.
const (
	DefaultGuestUser     = "vcap"
	DefaultGuestPassword = "vcap"
)

// SecretFlags are the vmrun flags whose value must not appear in logs.
var SecretFlags = []string{"-gp"}

// ConnectionTypeVariable is the runtime variable holding the NIC mode.
const ConnectionTypeVariable = "ethernet0.connectionType"

// ConnectionType is the appliance's virtual network adapter mode.
type ConnectionType string

const (
	ConnectionNAT     ConnectionType = "nat"
	ConnectionBridged ConnectionType = "bridged"
)

// Handle identifies one appliance. It is immutable after construction.
type Handle struct {
	VMRun         string       // vmrun binary
	VMX           string       // appliance config path
	GuestUser     string       // defaults to DefaultGuestUser
	GuestPassword string       // current (rotated) guest password
	TempDir       string       // host scratch directory
	Platform      platform.Tag // host platform
	ProbeBinary   string       // host path of the guest IP probe, built for the guest
}

// Driver issues vmrun commands for a single Handle.
type Driver struct {
	h      Handle
	runner exec.Runner
	paths  *paths.Paths
}

// New creates a driver. The runner is responsible for timeouts.
func New(h Handle, runner exec.Runner) *Driver {
	if h.GuestUser == "" {
		h.GuestUser = DefaultGuestUser
	}
	if h.Platform == "" {
		h.Platform = platform.Current()
	}
	if h.TempDir == "" {
		h.TempDir = os.TempDir()
	}
	return &Driver{
		h:      h,
		runner: runner,
		paths:  paths.New(h.TempDir),
	}
}

// VMX returns the appliance config path.
func (d *Driver) VMX() string {
	return d.h.VMX
}

// LockKey identifies the image for cross-process locking: the canonical VMX
// path, lower-cased where the platform ignores case.
func (d *Driver) LockKey() string {
	key := normalizePath(d.h.VMX, d.h.Platform)
	if d.h.Platform.CaseInsensitivePaths() {
		key = strings.ToLower(key)
	}
	return key
}

// List returns the appliance images vmrun reports as running.
func (d *Driver) List(ctx context.Context) ([]string, error) {
	res, err := d.host(ctx, "list")
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.ReplaceAll(res.Stdout, "\r\n", "\n"), "\n")
	lines = lo.Filter(lines, func(line string, _ int) bool {
		line = strings.TrimSpace(line)
		return line != "" && !strings.HasPrefix(line, "Total running VMs")
	})
	return lo.Map(lines, func(line string, _ int) string {
		return normalizePath(line, d.h.Platform)
	}), nil
}

// IsRunning reports whether this handle's image is in List.
func (d *Driver) IsRunning(ctx context.Context) (bool, error) {
	running, err := d.List(ctx)
	if err != nil {
		return false, err
	}
	want := normalizePath(d.h.VMX, d.h.Platform)
	return lo.ContainsBy(running, func(p string) bool {
		if d.h.Platform.CaseInsensitivePaths() {
			return strings.EqualFold(p, want)
		}
		return p == want
	}), nil
}

// Start powers the appliance on. It is a no-op when already running.
func (d *Driver) Start(ctx context.Context) error {
	running, err := d.IsRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		logger.FromContext(ctx).DebugContext(ctx, "appliance already running", "vmx", d.h.VMX)
		return nil
	}
	_, err = d.host(ctx, "start", d.h.VMX, "nogui")
	return err
}

// Stop powers the appliance off. It is a no-op when not running.
func (d *Driver) Stop(ctx context.Context) error {
	running, err := d.IsRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		logger.FromContext(ctx).DebugContext(ctx, "appliance already stopped", "vmx", d.h.VMX)
		return nil
	}
	_, err = d.host(ctx, "stop", d.h.VMX, "soft")
	return err
}

// Reset soft-reboots the guest. Callers must have confirmed the reboot.
func (d *Driver) Reset(ctx context.Context) error {
	_, err := d.host(ctx, "reset", d.h.VMX, "soft")
	return err
}

// WaitForGuest blocks until VMware Tools in the guest report a network
// address, which is the earliest point guest operations succeed after a
// Reset. The runner timeout bounds the wait.
func (d *Driver) WaitForGuest(ctx context.Context) error {
	res, err := d.host(ctx, "getGuestIPAddress", d.h.VMX, "-wait")
	if err != nil {
		return err
	}
	logger.FromContext(ctx).DebugContext(ctx, "guest is back", "vmx", d.h.VMX, "address", strings.TrimSpace(res.Stdout))
	return nil
}

// ReadVariable reads a runtimeConfig variable.
func (d *Driver) ReadVariable(ctx context.Context, name string) (string, error) {
	res, err := d.host(ctx, "readVariable", d.h.VMX, "runtimeConfig", name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

// WriteVariable writes a runtimeConfig variable.
func (d *Driver) WriteVariable(ctx context.Context, name, value string) error {
	_, err := d.host(ctx, "writeVariable", d.h.VMX, "runtimeConfig", name, value)
	return err
}

// ConnectionType reads the live NIC mode.
func (d *Driver) ConnectionType(ctx context.Context) (ConnectionType, error) {
	v, err := d.ReadVariable(ctx, ConnectionTypeVariable)
	if err != nil {
		return "", err
	}
	return ConnectionType(strings.ToLower(v)), nil
}

// SetConnectionType writes the NIC mode. It takes effect after Reset.
func (d *Driver) SetConnectionType(ctx context.Context, t ConnectionType) error {
	return d.WriteVariable(ctx, ConnectionTypeVariable, string(t))
}

// CopyToGuest copies a host file into the guest.
func (d *Driver) CopyToGuest(ctx context.Context, hostPath, guestPath string) error {
	_, err := d.guest(ctx, d.h.GuestUser, d.h.GuestPassword, "CopyFileFromHostToGuest", d.h.VMX, hostPath, guestPath)
	return err
}

// CopyFromGuest copies a guest file to the host.
func (d *Driver) CopyFromGuest(ctx context.Context, guestPath, hostPath string) error {
	_, err := d.guest(ctx, d.h.GuestUser, d.h.GuestPassword, "CopyFileFromGuestToHost", d.h.VMX, guestPath, hostPath)
	return err
}

// RunInGuest runs program inside the guest and waits for it.
func (d *Driver) RunInGuest(ctx context.Context, program string, args ...string) error {
	argv := append([]string{"runProgramInGuest", d.h.VMX, program}, args...)
	_, err := d.guest(ctx, d.h.GuestUser, d.h.GuestPassword, argv...)
	return err
}

// host runs a vmrun command that needs no guest login and requires exit 0.
func (d *Driver) host(ctx context.Context, args ...string) (*exec.Result, error) {
	return d.require(ctx, args[0], d.argv(args...))
}

// guest runs a vmrun command authenticated against the guest and requires exit 0.
func (d *Driver) guest(ctx context.Context, user, password string, args ...string) (*exec.Result, error) {
	return d.require(ctx, args[0], d.guestArgv(user, password, args...))
}

func (d *Driver) require(ctx context.Context, op string, argv []string) (*exec.Result, error) {
	res, err := d.invoke(ctx, op, argv)
	if err != nil {
		return nil, err
	}
	if res.Code != 0 {
		return nil, d.utilityError(op, res)
	}
	return res, nil
}

// invoke runs vmrun and only fails when it could not be run at all.
func (d *Driver) invoke(ctx context.Context, op string, argv []string) (*exec.Result, error) {
	res, err := d.runner.Run(ctx, d.h.VMRun, argv...)
	if err != nil {
		return nil, fmt.Errorf("vmrun %s: %w", op, err)
	}
	return res, nil
}

func (d *Driver) argv(args ...string) []string {
	return append([]string{"-T", d.h.Platform.HostType()}, args...)
}

func (d *Driver) guestArgv(user, password string, args ...string) []string {
	argv := []string{"-T", d.h.Platform.HostType(), "-gu", user, "-gp", password}
	return append(argv, args...)
}

func (d *Driver) utilityError(op string, res *exec.Result) *UtilityError {
	return &UtilityError{
		Op:      op,
		Command: exec.FormatCommand(res.Command, SecretFlags),
		Code:    res.Code,
		Output:  res.Output(),
	}
}

// normalizePath puts a vmrun-reported or configured image path into the
// canonical form for the platform, so List output and Handle.VMX compare.
func normalizePath(p string, plat platform.Tag) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = home + p[1:]
		}
	}
	if plat == platform.Windows {
		p = strings.ReplaceAll(p, "/", `\`)
		unc := strings.HasPrefix(p, `\\`)
		for strings.Contains(p, `\\`) {
			p = strings.ReplaceAll(p, `\\`, `\`)
		}
		if unc {
			p = `\` + p
		}
		return strings.TrimSuffix(p, `\`)
	}
	return path.Clean(p)
}
