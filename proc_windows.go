//go:build windows

package pylaunch

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

var shutdownSignals = []os.Signal{os.Interrupt}

// setProcessGroup starts the child in a new console process group so it can
// receive CTRL_BREAK on its own.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// releaseTerminal is a no-op; consoles have no foreground process group.
func releaseTerminal(*exec.Cmd) error {
	return nil
}

func terminateGroup(cmd *exec.Cmd) error {
	return windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(cmd.Process.Pid))
}

func killGroup(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
