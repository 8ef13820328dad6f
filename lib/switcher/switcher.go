// Package switcher moves a running appliance between online and offline
// network modes.
//
// A transition is a strict sequence of driver calls; each step depends on the
// state the previous one left behind. Nothing is cached: every call re-derives
// power, readiness, mode and connection type from the appliance itself, so a
// transition that failed halfway is reconciled by simply running it again.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onkernel/appliancectl/lib/hostdns"
	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/onkernel/appliancectl/lib/vmrun"
)

// Settings keys the switcher reads and writes.
const (
	KeyOnlineConnectionType = "online_connection_type"
	KeyDomain               = "domain"
	KeyIP                   = "ip"
)

// Mode is the appliance's network exposure.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Driver is the subset of *vmrun.Driver the switcher uses.
type Driver interface {
	VMX() string
	IsRunning(ctx context.Context) (bool, error)
	Start(ctx context.Context) error
	IsReady(ctx context.Context) (bool, error)
	IsOffline(ctx context.Context) (bool, error)
	ConnectionType(ctx context.Context) (vmrun.ConnectionType, error)
	SetConnectionType(ctx context.Context, t vmrun.ConnectionType) error
	Reset(ctx context.Context) error
	WaitForGuest(ctx context.Context) error
	SetOffline(ctx context.Context) error
	SetOnline(ctx context.Context) error
	Domain(ctx context.Context) (string, error)
	IP(ctx context.Context) (string, error)
}

// Settings is the persisted host-side switch configuration.
type Settings interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Confirmer asks the operator before disruptive steps.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// DNSCheck reports whether ip answers queries for domain.
type DNSCheck func(ctx context.Context, domain, ip string) (bool, error)

// Options wires a Switcher.
type Options struct {
	Driver   Driver
	DNS      hostdns.Adapter
	Settings Settings
	Confirm  Confirmer
	CheckDNS DNSCheck // optional, used by Status
}

// Switcher runs mode transitions for one appliance.
type Switcher struct {
	driver   Driver
	dns      hostdns.Adapter
	settings Settings
	confirm  Confirmer
	checkDNS DNSCheck
}

// Status is a read-only snapshot of the appliance.
type Status struct {
	Mode   Mode
	VMX    string
	Domain string
	IP     string

	// DNSAnswering is set only for an offline appliance when a DNS check is configured.
	DNSAnswering *bool
}

// New checks that the appliance is running and ready. A stopped appliance is
// started only if the operator agrees.
func New(ctx context.Context, opts Options) (*Switcher, error) {
	log := logger.FromContext(ctx)
	s := &Switcher{
		driver:   opts.Driver,
		dns:      opts.DNS,
		settings: opts.Settings,
		confirm:  opts.Confirm,
		checkDNS: opts.CheckDNS,
	}

	running, err := s.driver.IsRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("check power state: %w", err)
	}
	if !running {
		ok, err := s.confirm.Confirm(ctx, fmt.Sprintf("Appliance %s is not running. Start it?", s.driver.VMX()))
		if err != nil {
			return nil, fmt.Errorf("confirm start: %w", err)
		}
		if !ok {
			return nil, ErrNotRunning
		}
		log.InfoContext(ctx, "starting appliance", "vmx", s.driver.VMX())
		if err := s.driver.Start(ctx); err != nil {
			return nil, fmt.Errorf("start appliance: %w", err)
		}
	}

	ready, err := s.driver.IsReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("check readiness: %w", err)
	}
	if !ready {
		return nil, ErrNotReady
	}
	return s, nil
}

// GoOffline isolates the appliance from the host's network and points host
// DNS for its domain at the guest resolver.
func (s *Switcher) GoOffline(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	result := "changed"
	defer func() { SwitcherMetrics.RecordTransition(ctx, ModeOffline, outcome(result, err), start) }()

	offline, err := s.driver.IsOffline(ctx)
	if err != nil {
		return fmt.Errorf("check network mode: %w", err)
	}
	if offline {
		result = "noop"
		log.InfoContext(ctx, "appliance is already offline", "vmx", s.driver.VMX())
		return nil
	}

	live, err := s.driver.ConnectionType(ctx)
	if err != nil {
		return fmt.Errorf("read connection type: %w", err)
	}
	if _, ok := s.settings.Get(KeyOnlineConnectionType); !ok {
		if err := s.settings.Set(KeyOnlineConnectionType, string(live)); err != nil {
			return fmt.Errorf("record connection type: %w", err)
		}
	}

	if live != vmrun.ConnectionNAT {
		if err := s.switchConnectionType(ctx, live, vmrun.ConnectionNAT); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "taking appliance offline", "vmx", s.driver.VMX())
	if err := s.driver.SetOffline(ctx); err != nil {
		return fmt.Errorf("set guest offline: %w", err)
	}

	domain, err := s.driver.Domain(ctx)
	if err != nil {
		return fmt.Errorf("resolve domain: %w", err)
	}
	ip, err := s.driver.IP(ctx)
	if err != nil {
		return fmt.Errorf("resolve ip: %w", err)
	}
	if err := s.settings.Set(KeyDomain, domain); err != nil {
		return fmt.Errorf("record domain: %w", err)
	}
	if err := s.settings.Set(KeyIP, ip); err != nil {
		return fmt.Errorf("record ip: %w", err)
	}

	if err := s.applyDNS(ctx, "set", domain, ip, s.dns.Set); err != nil {
		return err
	}
	log.InfoContext(ctx, "appliance is offline", "domain", domain, "ip", ip)
	return nil
}

// GoOnline reverses GoOffline, restoring the connection type recorded by the
// first GoOffline.
func (s *Switcher) GoOnline(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	result := "changed"
	defer func() { SwitcherMetrics.RecordTransition(ctx, ModeOnline, outcome(result, err), start) }()

	offline, err := s.driver.IsOffline(ctx)
	if err != nil {
		return fmt.Errorf("check network mode: %w", err)
	}
	if !offline {
		result = "noop"
		log.InfoContext(ctx, "appliance is already online", "vmx", s.driver.VMX())
		return nil
	}

	live, err := s.driver.ConnectionType(ctx)
	if err != nil {
		return fmt.Errorf("read connection type: %w", err)
	}
	target := live
	if recorded, ok := s.settings.Get(KeyOnlineConnectionType); ok && recorded != "" {
		target = vmrun.ConnectionType(recorded)
	}
	if target != live {
		if err := s.switchConnectionType(ctx, live, target); err != nil {
			return err
		}
	}

	domain, ip, err := s.resolveMapping(ctx)
	if err != nil {
		return err
	}
	if err := s.applyDNS(ctx, "unset", domain, ip, s.dns.Unset); err != nil {
		return err
	}

	log.InfoContext(ctx, "bringing appliance online", "vmx", s.driver.VMX())
	if err := s.driver.SetOnline(ctx); err != nil {
		return fmt.Errorf("set guest online: %w", err)
	}

	// Stale once host DNS is restored.
	for _, key := range []string{KeyDomain, KeyIP} {
		if err := s.settings.Delete(key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	log.InfoContext(ctx, "appliance is online", "connection_type", string(target))
	return nil
}

// Status reports the live mode, domain and address. It never writes settings.
func (s *Switcher) Status(ctx context.Context) (*Status, error) {
	offline, err := s.driver.IsOffline(ctx)
	if err != nil {
		return nil, fmt.Errorf("check network mode: %w", err)
	}
	st := &Status{Mode: ModeOnline, VMX: s.driver.VMX()}
	if offline {
		st.Mode = ModeOffline
	}

	if st.Domain, err = s.driver.Domain(ctx); err != nil {
		return nil, fmt.Errorf("resolve domain: %w", err)
	}
	if st.IP, err = s.driver.IP(ctx); err != nil {
		return nil, fmt.Errorf("resolve ip: %w", err)
	}

	if offline && s.checkDNS != nil {
		answering, err := s.checkDNS(ctx, st.Domain, st.IP)
		if err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "dns check failed", "domain", st.Domain, "error", err)
		}
		st.DNSAnswering = &answering
	}
	return st, nil
}

// switchConnectionType rewrites the NIC mode and reboots the guest, returning
// once guest operations work again. It asks first.
func (s *Switcher) switchConnectionType(ctx context.Context, from, to vmrun.ConnectionType) error {
	prompt := fmt.Sprintf("Switching the network adapter from %s to %s requires a reboot of the appliance. Continue?", from, to)
	ok, err := s.confirm.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm reboot: %w", err)
	}
	if !ok {
		return ErrAborted
	}

	logger.FromContext(ctx).InfoContext(ctx, "changing connection type", "from", string(from), "to", string(to))
	if err := s.driver.SetConnectionType(ctx, to); err != nil {
		return fmt.Errorf("set connection type: %w", err)
	}
	if err := s.driver.Reset(ctx); err != nil {
		return fmt.Errorf("reset appliance: %w", err)
	}
	if err := s.driver.WaitForGuest(ctx); err != nil {
		return fmt.Errorf("wait for appliance after reset: %w", err)
	}
	return nil
}

// resolveMapping prefers the recorded domain and address over a live query.
func (s *Switcher) resolveMapping(ctx context.Context) (string, string, error) {
	domain, _ := s.settings.Get(KeyDomain)
	ip, _ := s.settings.Get(KeyIP)

	var err error
	if domain == "" {
		if domain, err = s.driver.Domain(ctx); err != nil {
			return "", "", fmt.Errorf("resolve domain: %w", err)
		}
	}
	if ip == "" {
		if ip, err = s.driver.IP(ctx); err != nil {
			return "", "", fmt.Errorf("resolve ip: %w", err)
		}
	}
	return domain, ip, nil
}

// applyDNS runs an adapter call. An unsupported platform is reported to the
// operator and does not fail the transition.
func (s *Switcher) applyDNS(ctx context.Context, op, domain, ip string, fn func(context.Context, string, string) error) error {
	err := fn(ctx, domain, ip)
	if errors.Is(err, hostdns.ErrUnsupported) {
		logger.FromContext(ctx).WarnContext(ctx, "host dns not updated", "op", op, "domain", domain, "ip", ip, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("host dns %s: %w", op, err)
	}
	return nil
}

func outcome(result string, err error) string {
	switch {
	case errors.Is(err, ErrAborted):
		return "aborted"
	case err != nil:
		return "failed"
	default:
		return result
	}
}
