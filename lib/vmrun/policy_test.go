package vmrun

import (
	"testing"

	"github.com/onkernel/appliancectl/lib/exec"
	"github.com/stretchr/testify/assert"
)

func result(code int, stdout string) *exec.Result {
	r := &exec.Result{Stdout: stdout}
	r.Code = code
	return r
}

func TestInterpretOffline(t *testing.T) {
	assert.Equal(t, True, InterpretOffline(result(0, "")).State)
	assert.Equal(t, False, InterpretOffline(result(1, "Guest program exited with non-zero exit code: 1")).State)

	v := InterpretOffline(result(2, "Error: boom"))
	assert.Equal(t, Unknown, v.State)
	assert.Equal(t, "Error: boom", v.Raw)

	// A rejected login is not a verdict for the offline marker.
	assert.Equal(t, Unknown, InterpretOffline(result(255, "Invalid user name or password")).State)
}

func TestInterpretReady(t *testing.T) {
	assert.Equal(t, True, InterpretReady(result(0, "")).State)
	assert.Equal(t, False, InterpretReady(result(1, "Guest program exited with non-zero exit code: 1")).State)
	assert.Equal(t, True, InterpretReady(result(255, "Error: Invalid user name or password for the guest OS")).State)
	assert.Equal(t, Unknown, InterpretReady(result(255, "Error: timeout")).State)
}
