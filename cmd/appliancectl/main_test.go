package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/onkernel/appliancectl/lib/switcher"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(switcher.ErrAborted))
	assert.Equal(t, 2, exitCode(fmt.Errorf("go offline: %w", switcher.ErrAborted)))
	assert.Equal(t, 1, exitCode(switcher.ErrNotReady))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &switcher.Status{
		Mode:   switcher.ModeOnline,
		VMX:    "/vms/dev.vmx",
		Domain: "dev.local",
		IP:     "192.168.56.10",
	})
	assert.Equal(t, "appliance: /vms/dev.vmx\nmode:      online\ndomain:    dev.local\nip:        192.168.56.10\n", buf.String())

	answering := false
	buf.Reset()
	printStatus(&buf, &switcher.Status{Mode: switcher.ModeOffline, DNSAnswering: &answering})
	assert.Contains(t, buf.String(), "dns:       not answering\n")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "stop", "online", "offline", "status"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("yes"))
}
