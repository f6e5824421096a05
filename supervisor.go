package pylaunch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultGracePeriod is how long a terminated child may take to exit before
// it is killed.
const DefaultGracePeriod = 5 * time.Second

// NotifyContext returns a context cancelled on the platform's shutdown
// signals (interrupt, and SIGTERM on unix).
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}

// Command describes a child process.
type Command struct {
	// Name labels the child in logs. Defaults to the base name of Path.
	Name string

	Path string
	Args []string

	// Dir is the working directory. Empty means the parent's.
	Dir string

	// Env is added to the parent's environment, replacing variables of the
	// same name.
	Env map[string]string

	// Stdio defaults to the parent's.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) label() string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(c.Path)
}

// Child is a process started by a Supervisor.
type Child struct {
	Name string

	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// PID returns the process ID.
func (c *Child) PID() int {
	return c.cmd.Process.Pid
}

// Wait blocks until the child exits and returns its wait error, which is an
// *exec.ExitError for a non-zero exit.
func (c *Child) Wait() error {
	<-c.done
	return c.err
}

// WaitTimeout waits at most d for the child to exit and reports whether it did.
func (c *Child) WaitTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done:
		return true
	case <-t.C:
		return false
	}
}

// Running reports whether the child has not exited yet.
func (c *Child) Running() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// ExitCode returns the child's exit code, or -1 while it runs or when it was
// ended by a signal.
func (c *Child) ExitCode() int {
	if c.Running() || c.cmd.ProcessState == nil {
		return exitCodeUnavailable
	}
	return c.cmd.ProcessState.ExitCode()
}

// Terminate asks the child's process group to stop (SIGTERM on unix,
// CTRL_BREAK on Windows).
func (c *Child) Terminate() error {
	if !c.Running() {
		return nil
	}
	return terminateGroup(c.cmd)
}

// Kill forcibly stops the child's process group.
func (c *Child) Kill() error {
	if !c.Running() {
		return nil
	}
	return killGroup(c.cmd)
}

// Supervisor spawns child processes and guarantees they are stopped on every
// exit path via Shutdown.
type Supervisor struct {
	// GracePeriod bounds how long Shutdown waits between terminating and
	// killing.
	GracePeriod time.Duration

	// Diagnostics, if set, receives non-fatal problems such as a browser that
	// could not be opened.
	Diagnostics *Diagnostics

	logger      *Logger
	openBrowser func(string) error

	mu       sync.Mutex
	children []*Child
}

// NewSupervisor returns a Supervisor. A non-positive grace selects
// DefaultGracePeriod.
func NewSupervisor(logger *Logger, grace time.Duration) *Supervisor {
	if logger == nil {
		logger = Discard()
	}
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Supervisor{
		GracePeriod: grace,
		logger:      logger,
		openBrowser: OpenBrowser,
	}
}

// Spawn starts c in its own process group and registers it for Shutdown.
func (s *Supervisor) Spawn(ctx context.Context, c Command) (*Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	// grandchildren holding our pipes must not block Wait forever
	cmd.WaitDelay = s.GracePeriod
	setProcessGroup(cmd)

	name := c.label()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	child := &Child{Name: name, cmd: cmd, done: make(chan struct{})}
	s.mu.Lock()
	s.children = append(s.children, child)
	s.mu.Unlock()

	s.logger.Info("started process", "name", name, "pid", cmd.Process.Pid)

	go func() {
		child.err = cmd.Wait()
		if err := releaseTerminal(cmd); err != nil {
			s.logger.Warn("could not take back the terminal", "name", name, "error", err)
		}
		close(child.done)
		s.logger.Info("process exited", "name", name, "pid", cmd.Process.Pid, "code", child.ExitCode())
	}()

	return child, nil
}

// RunAndWait spawns c and blocks until it exits, returning its exit code.
//
// If ctx is cancelled first, every child is shut down and RunAndWait returns
// ExitInterrupted with ErrInterrupted.
func (s *Supervisor) RunAndWait(ctx context.Context, c Command) (int, error) {
	child, err := s.Spawn(ctx, c)
	if err != nil {
		return ExitFailure, err
	}

	select {
	case <-child.done:
		return childResult(child)
	case <-ctx.Done():
		s.logger.Warn("interrupted, stopping children")
		s.Shutdown()
		return ExitInterrupted, ErrInterrupted
	}
}

// childResult maps an exited child to a process exit code.
func childResult(c *Child) (int, error) {
	code := c.ExitCode()
	if code >= 0 {
		return code, nil
	}
	var exitErr *exec.ExitError
	if c.err != nil && !errors.As(c.err, &exitErr) {
		return ExitFailure, fmt.Errorf("waiting for %s: %w", c.Name, c.err)
	}
	return ExitFailure, fmt.Errorf("%s was terminated by a signal", c.Name)
}

// Shutdown terminates every live child in creation order, waits up to the
// grace period for all of them, then kills whatever is left. It blocks until
// every child has exited.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	children := slices.Clone(s.children)
	s.mu.Unlock()

	var live []*Child
	for _, c := range children {
		if !c.Running() {
			continue
		}
		s.logger.Info("stopping process", "name", c.Name, "pid", c.PID())
		if err := c.Terminate(); err != nil {
			s.logger.Warn("failed to terminate process", "name", c.Name, "error", err)
		}
		live = append(live, c)
	}

	deadline := time.Now().Add(s.GracePeriod)
	for _, c := range live {
		if c.WaitTimeout(time.Until(deadline)) {
			continue
		}
		s.logger.Warn("graceful shutdown timeout, killing process",
			"name", c.Name,
			"timeout", s.GracePeriod,
		)
		if err := c.Kill(); err != nil {
			s.logger.Error("failed to kill process", "name", c.Name, "error", err)
			continue
		}
		<-c.done
	}
}

// Children returns the children spawned so far in creation order.
func (s *Supervisor) Children() []*Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.children)
}

// mergeEnv overlays extra on base. Keys are applied in sorted order so the
// result does not depend on map iteration.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, k+"="+extra[k])
	}
	return env
}
