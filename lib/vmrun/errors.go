package vmrun

import (
	"errors"
	"fmt"
)

var (
	// ErrUtility is wrapped by every UtilityError
	ErrUtility = errors.New("vmrun failed")

	// ErrUtilityNotFound is returned when no vmrun binary can be located
	ErrUtilityNotFound = errors.New("vmrun not found")

	// ErrProbeBinaryMissing is returned by IP when no probe binary was configured
	ErrProbeBinaryMissing = errors.New("ip probe binary not configured")

	// ErrNoDomain is returned when the guest state file has no domain
	ErrNoDomain = errors.New("guest state file has no domain")

	// ErrInvalidIP is returned when the probe output is not an IPv4 address
	ErrInvalidIP = errors.New("invalid ip from guest probe")
)

// UtilityError reports a vmrun invocation whose exit status and output did
// not match any known outcome. The raw output is kept for diagnosis.
type UtilityError struct {
	Op      string
	Command string
	Code    int
	Output  string
}

func (e *UtilityError) Error() string {
	return fmt.Sprintf("vmrun %s exited %d: %s (command: %s)", e.Op, e.Code, e.Output, e.Command)
}

func (e *UtilityError) Unwrap() error {
	return ErrUtility
}
