package switcher

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition is wrapped by errors raised before any transition starts
	ErrPrecondition = errors.New("precondition failed")

	// ErrNotRunning is returned when the appliance is stopped and starting it was declined
	ErrNotRunning = fmt.Errorf("%w: appliance must be running", ErrPrecondition)

	// ErrNotReady is returned when first-boot setup has not completed
	ErrNotReady = fmt.Errorf("%w: appliance setup has not completed", ErrPrecondition)

	// ErrAborted is returned when the user declines a required reboot
	ErrAborted = errors.New("aborted")
)
