package vmrun

import (
	"strings"

	"github.com/onkernel/appliancectl/lib/exec"
)

// Messages vmrun prints for the outcomes the probes distinguish.
const (
	msgGuestExitedNonZero = "Guest program exited with non-zero exit code: 1"
	msgAuthRejected       = "Invalid user name or password"
)

// State is the tagged outcome of a marker probe.
type State int

const (
	False State = iota
	True
	Unknown
)

func (s State) String() string {
	switch s {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Verdict is the interpretation of one marker-probe invocation.
// Raw carries the utility output whenever State is Unknown.
type Verdict struct {
	State State
	Code  int
	Raw   string
}

// InterpretOffline maps a `test -e <offline marker>` run to a verdict:
// exit 0 is true, exit 1 with the guest-exit message is false, anything
// else means vmrun itself failed.
func InterpretOffline(r *exec.Result) Verdict {
	out := r.Output()
	switch {
	case r.Code == 0:
		return Verdict{State: True, Code: r.Code}
	case r.Code == 1 && strings.Contains(out, msgGuestExitedNonZero):
		return Verdict{State: False, Code: r.Code}
	default:
		return Verdict{State: Unknown, Code: r.Code, Raw: out}
	}
}

// InterpretReady maps a `test -e <ready marker>` run made with the default
// guest credentials. Besides the offline rules, a rejected login counts as
// ready: first-boot setup rotates the default password as its last step.
func InterpretReady(r *exec.Result) Verdict {
	v := InterpretOffline(r)
	if v.State == Unknown && strings.Contains(v.Raw, msgAuthRejected) {
		return Verdict{State: True, Code: r.Code}
	}
	return v
}
