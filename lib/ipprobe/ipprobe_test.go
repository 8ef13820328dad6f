package ipprobe

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn only answers LocalAddr.
type fakeConn struct {
	net.Conn
	local net.Addr
}

func (c fakeConn) LocalAddr() net.Addr { return c.local }
func (c fakeConn) Close() error        { return nil }

type probeHarness struct {
	dials  int
	sleeps []time.Duration
	lookup *atomicToggle
}

// options fails the first `failures` dials with err, then succeeds.
func (h *probeHarness) options(failures int, err error) Options {
	return Options{
		Lookup: h.lookup,
		Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			h.dials++
			if h.dials <= failures {
				return nil, &net.OpError{Op: "dial", Net: network, Err: os.NewSyscallError("connect", err)}
			}
			return fakeConn{local: &net.UDPAddr{IP: net.ParseIP("192.168.56.10"), Port: 40000}}, nil
		},
		Sleep: func(ctx context.Context, d time.Duration) error {
			h.sleeps = append(h.sleeps, d)
			return nil
		},
	}
}

func newHarness(lookup bool) *probeHarness {
	h := &probeHarness{lookup: &atomicToggle{}}
	h.lookup.SetEnabled(lookup)
	return h
}

func TestDiscover_SucceedsOnTenthAttempt(t *testing.T) {
	h := newHarness(true)

	ip, err := Discover(context.Background(), h.options(9, syscall.ENETUNREACH))
	require.NoError(t, err)
	assert.Equal(t, "192.168.56.10", ip.String())
	assert.Equal(t, 10, h.dials)
	assert.Len(t, h.sleeps, 9)
	for _, d := range h.sleeps {
		assert.Equal(t, 3*time.Second, d)
	}
	assert.True(t, h.lookup.Enabled(), "reverse lookup restored")
}

func TestDiscover_GivesUpAfterTenAttempts(t *testing.T) {
	h := newHarness(true)

	_, err := Discover(context.Background(), h.options(10, syscall.ENETUNREACH))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, syscall.ENETUNREACH)
	assert.Equal(t, 10, h.dials)
	assert.Len(t, h.sleeps, 9)
	assert.True(t, h.lookup.Enabled(), "reverse lookup restored")
}

func TestDiscover_RestoresDisabledLookup(t *testing.T) {
	h := newHarness(false)

	_, err := Discover(context.Background(), h.options(0, nil))
	require.NoError(t, err)
	assert.False(t, h.lookup.Enabled())
}

func TestDiscover_LookupDisabledWhileRunning(t *testing.T) {
	h := newHarness(true)
	opts := h.options(0, nil)
	dial := opts.Dial
	opts.Dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		assert.False(t, h.lookup.Enabled())
		return dial(ctx, network, addr)
	}

	_, err := Discover(context.Background(), opts)
	require.NoError(t, err)
}

func TestDiscover_OtherErrorsFailFast(t *testing.T) {
	h := newHarness(false)

	_, err := Discover(context.Background(), h.options(10, syscall.EACCES))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, 1, h.dials)
	assert.Empty(t, h.sleeps)
}

func TestDiscover_Cancelled(t *testing.T) {
	h := newHarness(true)
	opts := h.options(10, syscall.ENETUNREACH)
	opts.Sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	_, err := Discover(context.Background(), opts)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, h.dials)
	assert.True(t, h.lookup.Enabled())
}

func TestDiscover_Loopback(t *testing.T) {
	ip, err := Discover(context.Background(), Options{Target: "127.0.0.1:53", Attempts: 1})
	require.NoError(t, err)
	assert.True(t, ip.IsLoopback())
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appliance-ip")

	require.NoError(t, WriteResult(path, net.ParseIP("10.0.0.7")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", string(data))
}
