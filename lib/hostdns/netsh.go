package hostdns

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/onkernel/appliancectl/lib/logger"
)

// netshAdapter points the VMware NAT adapter's DNS server at the appliance.
// From Vista on (major version 6) netsh needs an elevated token, obtained
// through a UAC prompt via PowerShell. Older systems run netsh directly and
// let it report missing privileges.
//
// The elevated process runs in its own window, so only its exit code comes
// back; PowerShell passes it through as its own.
type netshAdapter struct {
	runner       exec.Runner
	iface        string
	majorVersion func() uint32
}

// alreadyDHCP is what netsh prints when asked to switch an adapter that
// already uses DHCP back to DHCP. It exits 1 in that case.
const alreadyDHCP = "DHCP is already enabled"

func (a *netshAdapter) Set(ctx context.Context, domain, ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid nameserver address %q", ip)
	}
	logger.FromContext(ctx).InfoContext(ctx, "setting adapter dns server", "interface", a.iface, "domain", domain, "ip", ip)
	return a.run(ctx, "interface", "ip", "set", "dnsservers",
		fmt.Sprintf("name=%q", a.iface), "source=static", "address="+ip, "register=none", "validate=no")
}

func (a *netshAdapter) Unset(ctx context.Context, domain, ip string) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "restoring adapter dns to dhcp", "interface", a.iface, "domain", domain)

	dhcp, err := a.usesDHCP(ctx)
	if err != nil {
		return err
	}
	if dhcp {
		log.DebugContext(ctx, "adapter dns already from dhcp", "interface", a.iface)
		return nil
	}
	return a.run(ctx, "interface", "ip", "set", "dnsservers",
		fmt.Sprintf("name=%q", a.iface), "source=dhcp")
}

// usesDHCP reads the adapter's DNS source. Showing config needs no elevation.
func (a *netshAdapter) usesDHCP(ctx context.Context) (bool, error) {
	res, err := a.runner.Run(ctx, "netsh", "interface", "ip", "show", "dnsservers",
		fmt.Sprintf("name=%q", a.iface))
	if err != nil {
		return false, fmt.Errorf("netsh: %w", err)
	}
	if res.Code != 0 {
		return false, fmt.Errorf("%w: netsh show dnsservers exited %d: %s", ErrElevation, res.Code, res.Output())
	}
	return strings.Contains(res.Output(), "configured through DHCP"), nil
}

func (a *netshAdapter) run(ctx context.Context, args ...string) error {
	name, argv := "netsh", args
	if a.majorVersion() >= 6 {
		name, argv = "powershell", []string{"-NoProfile", "-Command", elevatedCommand("netsh", args)}
	}

	res, err := a.runner.Run(ctx, name, argv...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if res.Code != 0 && !strings.Contains(res.Output(), alreadyDHCP) {
		return fmt.Errorf("%w: %s exited %d: %s", ErrElevation, name, res.Code, res.Output())
	}
	return nil
}

// elevatedCommand renders a PowerShell script that runs program through a UAC
// prompt, waits for it and exits with its exit code.
func elevatedCommand(program string, args []string) string {
	return fmt.Sprintf("$p = Start-Process %s -ArgumentList %s -Verb RunAs -Wait -PassThru -WindowStyle Hidden; exit $p.ExitCode",
		program, powershellString(strings.Join(args, " ")))
}

// powershellString renders s as a single-quoted PowerShell literal.
func powershellString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
