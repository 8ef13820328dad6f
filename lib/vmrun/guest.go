package vmrun

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/paths"
)

// offlineDNSConf stops the guest resolver from forwarding upstream, so the
// appliance only answers for names it owns.
const offlineDNSConf = `# managed by appliancectl; removed when the appliance goes back online
no-resolv
no-poll
`

// stagedOfflineDNSConf is where the config lands before it is moved into
// place with root privileges.
const stagedOfflineDNSConf = "/tmp/appliance-offline.conf"

// guestState mirrors the fields of the guest state file we read.
type guestState struct {
	Domain string `json:"domain"`
}

// IsOffline reports whether the guest carries the offline marker.
func (d *Driver) IsOffline(ctx context.Context) (bool, error) {
	return d.probeMarker(ctx, "isOffline", d.h.GuestUser, d.h.GuestPassword, paths.GuestOfflineMarker, InterpretOffline)
}

// IsReady reports whether first-boot setup has finished. It logs in with the
// default credentials on purpose; see InterpretReady.
func (d *Driver) IsReady(ctx context.Context) (bool, error) {
	return d.probeMarker(ctx, "isReady", DefaultGuestUser, DefaultGuestPassword, paths.GuestReadyMarker, InterpretReady)
}

func (d *Driver) probeMarker(ctx context.Context, op, user, password, marker string, interpret func(*exec.Result) Verdict) (bool, error) {
	argv := d.guestArgv(user, password, "runProgramInGuest", d.h.VMX, "/usr/bin/test", "-e", marker)
	res, err := d.invoke(ctx, op, argv)
	if err != nil {
		return false, err
	}

	v := interpret(res)
	logger.FromContext(ctx).DebugContext(ctx, "marker probe", "marker", marker, "state", v.State.String(), "exit_code", v.Code)
	switch v.State {
	case True:
		return true, nil
	case False:
		return false, nil
	default:
		return false, d.utilityError(op, res)
	}
}

// SetOffline installs the offline resolver config, drops the offline marker
// and restarts the guest DNS service.
func (d *Driver) SetOffline(ctx context.Context) error {
	local, err := d.paths.OfflineDNSConf()
	if err != nil {
		return err
	}
	if err := os.WriteFile(local, []byte(offlineDNSConf), 0644); err != nil {
		return fmt.Errorf("write offline dns config: %w", err)
	}
	defer os.Remove(local)

	if err := d.CopyToGuest(ctx, local, stagedOfflineDNSConf); err != nil {
		return err
	}
	if err := d.sudo(ctx, "/bin/mv", "-f", stagedOfflineDNSConf, paths.GuestOfflineDNSConf); err != nil {
		return err
	}
	if err := d.sudo(ctx, "/usr/bin/touch", paths.GuestOfflineMarker); err != nil {
		return err
	}
	return d.restartDNS(ctx)
}

// SetOnline removes what SetOffline installed and restarts the guest DNS service.
func (d *Driver) SetOnline(ctx context.Context) error {
	if err := d.sudo(ctx, "/bin/rm", "-f", paths.GuestOfflineDNSConf, paths.GuestOfflineMarker); err != nil {
		return err
	}
	return d.restartDNS(ctx)
}

// Domain reads the appliance's primary domain from the guest state file.
func (d *Driver) Domain(ctx context.Context) (string, error) {
	local, err := d.paths.StateFile()
	if err != nil {
		return "", err
	}
	if err := d.CopyFromGuest(ctx, paths.GuestStateFile, local); err != nil {
		return "", err
	}
	defer os.Remove(local)

	data, err := os.ReadFile(local)
	if err != nil {
		return "", fmt.Errorf("read guest state: %w", err)
	}
	var st guestState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return "", fmt.Errorf("parse guest state: %w", err)
	}
	domain := strings.TrimSpace(st.Domain)
	if domain == "" {
		return "", ErrNoDomain
	}
	return domain, nil
}

// IP runs the probe inside the guest and returns the address it found.
func (d *Driver) IP(ctx context.Context) (string, error) {
	if d.h.ProbeBinary == "" {
		return "", ErrProbeBinaryMissing
	}
	if _, err := os.Stat(d.h.ProbeBinary); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProbeBinaryMissing, err)
	}

	if err := d.CopyToGuest(ctx, d.h.ProbeBinary, paths.GuestProbeBinary); err != nil {
		return "", err
	}
	if err := d.RunInGuest(ctx, "/bin/chmod", "+x", paths.GuestProbeBinary); err != nil {
		return "", err
	}
	if err := d.RunInGuest(ctx, paths.GuestProbeBinary); err != nil {
		return "", err
	}

	local, err := d.paths.ProbeOutput()
	if err != nil {
		return "", err
	}
	if err := d.CopyFromGuest(ctx, paths.GuestProbeOutput, local); err != nil {
		return "", err
	}
	defer os.Remove(local)

	data, err := os.ReadFile(local)
	if err != nil {
		return "", fmt.Errorf("read probe output: %w", err)
	}
	return parseIPv4(string(data))
}

func parseIPv4(s string) (string, error) {
	s = strings.TrimSpace(s)
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIP, s)
	}
	return ip.To4().String(), nil
}

// sudo runs a guest command as root. The appliance image grants the guest
// user passwordless sudo; -n makes a misconfigured image fail instead of hang.
func (d *Driver) sudo(ctx context.Context, program string, args ...string) error {
	return d.RunInGuest(ctx, "/usr/bin/sudo", append([]string{"-n", program}, args...)...)
}

func (d *Driver) restartDNS(ctx context.Context) error {
	return d.sudo(ctx, "/usr/sbin/service", "dnsmasq", "restart")
}
