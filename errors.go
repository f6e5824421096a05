package pylaunch

import (
	"errors"
	"fmt"
)

// Process exit codes reported by the launcher binaries.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitToolMissing     = 2
	ExitInterrupted     = 130
	exitCodeUnavailable = -1
)

var (
	// ErrNoEntrypoint is returned when every resolution strategy came up empty.
	ErrNoEntrypoint = errors.New("no entrypoint found")

	// ErrModeTransition is returned for a LaunchMode change that would re-enter
	// bootstrapping or leave a terminal mode.
	ErrModeTransition = errors.New("invalid launch mode transition")

	// ErrInterrupted is returned when the operator cancelled the run while
	// children were still alive.
	ErrInterrupted = errors.New("interrupted")

	// ErrPythonTooOld is returned when the system interpreter cannot create
	// a virtual environment.
	ErrPythonTooOld = errors.New("python is too old")

	// ErrPackagingToolMissing is returned when PyInstaller cannot be run from
	// the environment.
	ErrPackagingToolMissing = errors.New("packaging tool is not available")
)

// ExitError carries the process exit code a failure should produce.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exitf builds an ExitError with a formatted message.
func Exitf(code int, err error, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// ExitCode maps an error returned by a launcher run to a process exit code.
// A nil error maps to ExitOK and unknown errors to ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, ErrInterrupted) {
		return ExitInterrupted
	}
	if errors.Is(err, ErrPackagingToolMissing) {
		return ExitToolMissing
	}
	return ExitFailure
}
