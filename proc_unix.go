//go:build !windows

package pylaunch

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var shutdownSignals = []os.Signal{os.Interrupt, unix.SIGTERM}

// setProcessGroup puts the child in a new process group so signals reach
// everything it starts. A child whose stdin is the terminal we hold in the
// foreground is handed that terminal, since a background group is stopped
// by SIGTTIN on its first read.
func setProcessGroup(cmd *exec.Cmd) {
	attr := &syscall.SysProcAttr{Setpgid: true}
	if fd, ok := foregroundTerminal(cmd.Stdin); ok {
		attr.Foreground = true
		attr.Ctty = fd
	}
	cmd.SysProcAttr = attr
}

// foregroundTerminal returns the descriptor of stdin when it is a terminal
// whose foreground process group is ours.
func foregroundTerminal(stdin io.Reader) (int, bool) {
	f, ok := stdin.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, false
	}
	pgrp, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil || pgrp != unix.Getpgrp() {
		return 0, false
	}
	return fd, true
}

// releaseTerminal takes the terminal back from an exited child that was
// given it. A terminal another live group holds by now is left alone.
func releaseTerminal(cmd *exec.Cmd) error {
	attr := cmd.SysProcAttr
	if attr == nil || !attr.Foreground {
		return nil
	}
	pgrp, err := unix.IoctlGetInt(attr.Ctty, unix.TIOCGPGRP)
	if err != nil || pgrp == unix.Getpgrp() {
		return nil
	}
	if pgrp != cmd.Process.Pid && unix.Kill(-pgrp, 0) == nil {
		return nil
	}

	// we are a background group until this succeeds
	signal.Ignore(unix.SIGTTOU)
	defer signal.Reset(unix.SIGTTOU)
	return unix.IoctlSetPointerInt(attr.Ctty, unix.TIOCSPGRP, unix.Getpgrp())
}

func terminateGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd.Process.Pid, unix.SIGTERM)
}

func killGroup(cmd *exec.Cmd) error {
	return signalGroup(cmd.Process.Pid, unix.SIGKILL)
}

// signalGroup signals the process group led by pid. A group that is already
// gone is not an error.
func signalGroup(pid int, sig syscall.Signal) error {
	if err := unix.Kill(-pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return err
	}
	return nil
}
