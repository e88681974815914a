package worker

import "errors"

var (
	// ErrStopTimeout is returned by Stop when the in-flight tick did not end
	// within the stop timeout and had to be canceled.
	ErrStopTimeout = errors.New("scheduler stop timed out")

	// ErrSchedulerStopped is returned by RunNow while the scheduler is not started.
	ErrSchedulerStopped = errors.New("scheduler is not running")
)
