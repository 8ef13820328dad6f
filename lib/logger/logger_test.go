package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_DefaultsWhenMissing(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestAddToContext_RoundTrip(t *testing.T) {
	log := New(Options{Output: &bytes.Buffer{}})
	ctx := AddToContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "json", Output: &buf})
	log.Info("hello", "vmx", "/vms/foo.vmx")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"vmx":"/vms/foo.vmx"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: slog.LevelWarn, Output: &buf})
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestTeeHandler_WritesToAll(t *testing.T) {
	var a, b bytes.Buffer
	h := NewTeeHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("component", "switcher")

	log.Info("going offline")
	log.Error("dns failed")

	require.Contains(t, a.String(), "going offline")
	require.Contains(t, a.String(), "dns failed")
	assert.Contains(t, a.String(), "component=switcher")
	assert.NotContains(t, b.String(), "going offline")
	assert.Contains(t, b.String(), "dns failed")
	assert.Contains(t, b.String(), "component=switcher")
}
