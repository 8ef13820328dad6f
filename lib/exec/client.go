// Package exec runs host programs synchronously and captures their output.
// Every external tool the appliance core talks to (vmrun, osascript, netsh)
// goes through a Runner so the call can be bounded, logged and faked in tests.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/onkernel/appliancectl/lib/logger"
	"github.com/samber/lo"
)

// ErrTimeout is returned when a program does not exit before Options.Timeout.
var ErrTimeout = errors.New("command timed out")

// ExitStatus represents command exit information
type ExitStatus struct {
	Code int
}

// Result holds everything a finished program produced.
type Result struct {
	Command []string
	Stdout  string
	Stderr  string
	ExitStatus
}

// Output returns stdout and stderr joined, trimmed of surrounding whitespace.
// vmrun reports most of its errors on stdout, so callers matching messages
// should use this rather than either stream alone.
func (r *Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	if errOut := strings.TrimSpace(r.Stderr); errOut != "" {
		if out != "" {
			out += "\n"
		}
		out += errOut
	}
	return out
}

// Options configures command execution
type Options struct {
	Timeout   time.Duration // Per-invocation limit (0 = no timeout)
	MaxOutput int64         // Bytes captured per stream (0 = unlimited)
	Secrets   []string      // Flags whose following argument is masked in logs
}

// Runner executes a program to completion.
// A non-zero exit code is not an error: it is reported in Result.Code.
// An error means the program could not be run or did not finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// HostRunner runs programs on the local machine.
type HostRunner struct {
	opts Options
}

// NewHostRunner creates a runner with the given options.
func NewHostRunner(opts Options) *HostRunner {
	return &HostRunner{opts: opts}
}

// Verify HostRunner implements the interface
var _ Runner = (*HostRunner)(nil)

// Run implements Runner.
func (r *HostRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	log := logger.FromContext(ctx)

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	stdout := newCappedBuffer(r.opts.MaxOutput)
	stderr := newCappedBuffer(r.opts.MaxOutput)

	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	result := &Result{Command: append([]string{name}, args...)}
	printable := FormatCommand(result.Command, r.opts.Secrets)
	log.DebugContext(ctx, "running command", "command", printable)

	start := time.Now()
	err := cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			ExecMetrics.RecordRun(ctx, name, start, -1)
			return result, fmt.Errorf("%w after %s: %s", ErrTimeout, r.opts.Timeout, printable)
		}
		var exitErr *osexec.ExitError
		if !errors.As(err, &exitErr) {
			ExecMetrics.RecordRun(ctx, name, start, -1)
			return result, fmt.Errorf("run %s: %w", name, err)
		}
		result.Code = exitErr.ExitCode()
	}

	ExecMetrics.RecordRun(ctx, name, start, result.Code)
	log.DebugContext(ctx, "command finished", "command", printable, "exit_code", result.Code,
		"duration", time.Since(start))
	return result, nil
}

// FormatCommand renders an argument vector for logs. The argument after any
// flag in secrets is masked.
func FormatCommand(argv []string, secrets []string) string {
	parts := make([]string, 0, len(argv))
	mask := false
	for _, a := range argv {
		if mask {
			a, mask = "***", false
		} else if lo.Contains(secrets, a) {
			mask = true
		}
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// cappedBuffer keeps at most max bytes and silently drops the rest, so a
// chatty program can never exhaust memory or block on a full pipe.
type cappedBuffer struct {
	buf bytes.Buffer
	max int64
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.max <= 0 {
		return b.buf.Write(p)
	}
	room := b.max - int64(b.buf.Len())
	if room > 0 {
		if int64(len(p)) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
