package pylaunch

import "fmt"

// LaunchMode says how an invocation treats the project it was started for.
type LaunchMode int

const (
	// ModeBootstrap provisions the environment and decides how to run.
	ModeBootstrap LaunchMode = iota
	// ModePackaged runs the entrypoint on behalf of a bootstrap parent.
	ModePackaged
	// ModeDirect runs the entrypoint in the provisioned environment.
	ModeDirect
)

// String returns the lower-case mode name used in logs and reports.
func (m LaunchMode) String() string {
	switch m {
	case ModeBootstrap:
		return "bootstrap"
	case ModePackaged:
		return "packaged"
	case ModeDirect:
		return "direct"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ModeFromChildFlag maps the child-mode environment value to a mode.
// Only the exact string "1" selects ModePackaged.
func ModeFromChildFlag(value string) LaunchMode {
	if value == "1" {
		return ModePackaged
	}
	return ModeBootstrap
}

// Terminal reports whether no further transition is allowed from m.
func (m LaunchMode) Terminal() bool {
	return m == ModePackaged || m == ModeDirect
}

// Transition returns the next mode, or ErrModeTransition when leaving m for
// next is not allowed. Only Bootstrap may move, and only forward.
func (m LaunchMode) Transition(next LaunchMode) (LaunchMode, error) {
	if m == ModeBootstrap && (next == ModePackaged || next == ModeDirect) {
		return next, nil
	}
	return m, fmt.Errorf("%w: %s -> %s", ErrModeTransition, m, next)
}
