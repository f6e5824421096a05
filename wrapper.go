package pylaunch

import (
	"context"
	"errors"
	"log/slog"
)

// Wrapper is the thin variant that prefers the packaged launcher and falls
// back to a Python launcher script. The packaged launcher's output goes to
// the wrapper log.
type Wrapper struct {
	inv   *Invocation
	sup   *Supervisor
	entry string
}

// NewWrapper returns a Wrapper for inv.
func NewWrapper(inv *Invocation) *Wrapper {
	if inv.Logger == nil {
		inv.Logger = Discard()
	}
	if inv.Diagnostics == nil {
		inv.Diagnostics = &Diagnostics{}
	}
	sup := NewSupervisor(inv.Logger, inv.Settings.GracePeriod)
	sup.Diagnostics = inv.Diagnostics
	return &Wrapper{inv: inv, sup: sup}
}

// Entrypoint returns the entrypoint handed to the packaged launcher, if any.
func (w *Wrapper) Entrypoint() string {
	return w.entry
}

// Run starts the packaged launcher if it exists, else the fallback script.
func (w *Wrapper) Run(ctx context.Context) error {
	defer w.sup.Shutdown()

	inv, s, logger := w.inv, w.inv.Settings, w.inv.Logger
	logger.Info("launcher wrapper started", "root", inv.Root)

	exe := NewPackager("", inv.Root, s.Packaging, logger).ExecutablePath()
	if isRegularFile(exe) {
		logger.Info("found packaged launcher", "path", exe)
		err := w.runPackaged(ctx, exe)
		if !errors.Is(err, errStartFailed) {
			return err
		}
		logger.Warn("falling back to python launcher")
	} else {
		logger.Info("no packaged launcher", "path", exe)
	}

	fallback := inv.path(s.Wrapper.FallbackLauncher)
	if !isRegularFile(fallback) {
		logger.Error("fallback launcher not found; cannot start project", "path", fallback)
		return Exitf(ExitFailure, nil, "fallback launcher %s not found", fallback)
	}
	python, err := inv.ProjectPython()
	if err != nil {
		return Exitf(ExitFailure, err, "finding python")
	}

	logger.Info("running fallback launcher", "path", fallback, "python", python)
	code, err := w.sup.RunAndWait(ctx, Command{
		Name: "fallback launcher",
		Path: python,
		Args: append([]string{fallback}, inv.Args...),
		Dir:  inv.Root,
	})
	logger.Info("fallback launcher finished", "code", code)
	return exitResult("fallback launcher", code, err)
}

// errStartFailed marks a packaged launcher that could not be started.
var errStartFailed = errors.New("packaged launcher did not start")

func (w *Wrapper) runPackaged(ctx context.Context, exe string) error {
	inv, logger := w.inv, w.inv.Logger

	// the packaged launcher needs an entrypoint; without one it still starts
	// and reports the problem itself
	entry := ""
	if res, err := inv.resolve(); err == nil {
		entry = res.Path
		w.entry = entry
	}

	out := logger.LineWriter(slog.LevelInfo, "stream", "child")
	defer out.Close()

	child, err := w.sup.Spawn(ctx, Command{
		Name:   "packaged launcher",
		Path:   exe,
		Args:   inv.Args,
		Dir:    inv.Root,
		Env:    inv.childEnv(entry),
		Stdout: out,
		Stderr: out,
	})
	if err != nil {
		logger.Error("failed to run packaged launcher", "error", err)
		inv.Diagnostics.Warn("wrapper", err)
		return errStartFailed
	}

	select {
	case <-child.done:
	case <-ctx.Done():
		w.sup.Shutdown()
		return ErrInterrupted
	}
	code, err := childResult(child)
	logger.Info("packaged launcher finished", "code", code)
	return exitResult("packaged launcher", code, err)
}
