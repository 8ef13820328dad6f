package exec

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestHostRunner_CapturesOutputAndExitCode(t *testing.T) {
	skipOnWindows(t)
	r := NewHostRunner(Options{})

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")
	require.NoError(t, err, "non-zero exit is reported in the result, not as an error")
	assert.Equal(t, 3, res.Code)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "out\nerr", res.Output())
}

func TestHostRunner_Timeout(t *testing.T) {
	skipOnWindows(t)
	r := NewHostRunner(Options{Timeout: 50 * time.Millisecond})

	_, err := r.Run(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHostRunner_MissingProgram(t *testing.T) {
	r := NewHostRunner(Options{})

	_, err := r.Run(context.Background(), "definitely-not-a-real-program-xyz")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestHostRunner_MaxOutput(t *testing.T) {
	skipOnWindows(t)
	r := NewHostRunner(Options{MaxOutput: 4})

	res, err := r.Run(context.Background(), "sh", "-c", "printf 0123456789")
	require.NoError(t, err)
	assert.Equal(t, "0123", res.Stdout)
}

func TestFormatCommand(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		secrets []string
		want    string
	}{
		{
			name: "plain",
			argv: []string{"vmrun", "list"},
			want: "vmrun list",
		},
		{
			name:    "password masked",
			argv:    []string{"vmrun", "-gu", "vcap", "-gp", "s3cret", "list"},
			secrets: []string{"-gp"},
			want:    "vmrun -gu vcap -gp *** list",
		},
		{
			name:    "user equal to password kept",
			argv:    []string{"vmrun", "-gu", "vcap", "-gp", "vcap", "list"},
			secrets: []string{"-gp"},
			want:    "vmrun -gu vcap -gp *** list",
		},
		{
			name:    "trailing flag",
			argv:    []string{"vmrun", "-gp"},
			secrets: []string{"-gp"},
			want:    "vmrun -gp",
		},
		{
			name: "spaces quoted",
			argv: []string{"netsh", "name=VMware Network Adapter VMnet8"},
			want: `netsh "name=VMware Network Adapter VMnet8"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCommand(tt.argv, tt.secrets))
		})
	}
}

func TestResultOutput(t *testing.T) {
	r := &Result{Stdout: "  \n", Stderr: "boom\n"}
	assert.Equal(t, "boom", r.Output())

	r = &Result{Stdout: "Error: nope\n"}
	assert.Equal(t, "Error: nope", r.Output())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRun(context.Background(), "vmrun", time.Now(), 0)

	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}
