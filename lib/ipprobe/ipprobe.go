// Package ipprobe finds the address a host uses for outbound traffic.
//
// It runs inside the appliance. A UDP "connection" toward a public resolver
// makes the kernel pick a route and a source address without sending any
// packet; that source address is the guest's IP.
package ipprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/onkernel/appliancectl/lib/logger"
)

const (
	// DefaultTarget only steers route selection; nothing is sent to it.
	DefaultTarget   = "8.8.8.8:53"
	DefaultAttempts = 10
	DefaultDelay    = 3 * time.Second
)

// ErrUnreachable is returned when the network stayed unreachable for every attempt.
var ErrUnreachable = errors.New("network unreachable")

// Toggle is a process-wide boolean setting.
type Toggle interface {
	Enabled() bool
	SetEnabled(bool)
}

// ReverseLookup controls whether Describe resolves addresses to names.
// Discover turns it off while it runs and restores it afterwards.
var ReverseLookup Toggle = &atomicToggle{}

type atomicToggle struct {
	v atomic.Bool
}

func (t *atomicToggle) Enabled() bool      { return t.v.Load() }
func (t *atomicToggle) SetEnabled(on bool) { t.v.Store(on) }

// Options configures Discover. Zero values pick the defaults.
type Options struct {
	Target   string
	Attempts int
	Delay    time.Duration

	Lookup Toggle
	Dial   func(ctx context.Context, network, addr string) (net.Conn, error)
	Sleep  func(ctx context.Context, d time.Duration) error
}

func (o *Options) setDefaults() {
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Lookup == nil {
		o.Lookup = ReverseLookup
	}
	if o.Dial == nil {
		var d net.Dialer
		o.Dial = d.DialContext
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
}

// Discover returns the local address chosen for the route to opts.Target.
// "network unreachable" is retried, since it is expected while DHCP is
// still running during boot. Any other error fails at once.
func Discover(ctx context.Context, opts Options) (net.IP, error) {
	opts.setDefaults()
	log := logger.FromContext(ctx)

	prev := opts.Lookup.Enabled()
	opts.Lookup.SetEnabled(false)
	defer opts.Lookup.SetEnabled(prev)

	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		ip, err := localAddr(ctx, opts)
		if err == nil {
			log.DebugContext(ctx, "discovered address", "ip", ip.String(), "attempt", attempt)
			return ip, nil
		}
		if !errors.Is(err, syscall.ENETUNREACH) {
			return nil, err
		}
		lastErr = err

		if attempt == opts.Attempts {
			break
		}
		log.InfoContext(ctx, "network unreachable, retrying", "attempt", attempt, "delay", opts.Delay)
		if err := opts.Sleep(ctx, opts.Delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUnreachable, opts.Attempts, lastErr)
}

func localAddr(ctx context.Context, opts Options) (net.IP, error) {
	conn, err := opts.Dial(ctx, "udp", opts.Target)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Target, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP, nil
}

// Describe renders ip for logs, with its name when ReverseLookup is enabled.
func Describe(ctx context.Context, ip net.IP) string {
	if !ReverseLookup.Enabled() {
		return ip.String()
	}
	names, err := net.DefaultResolver.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		return ip.String()
	}
	return fmt.Sprintf("%s (%s)", ip, names[0])
}

// WriteResult stores ip as plain text with no trailing newline.
func WriteResult(path string, ip net.IP) error {
	if err := os.WriteFile(path, []byte(ip.String()), 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
