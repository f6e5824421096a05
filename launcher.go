package pylaunch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Invocation is everything a single run needs. main builds it once and every
// component reads from it.
type Invocation struct {
	// Root is the absolute project root.
	Root string

	// Mode is the mode the run starts in.
	Mode LaunchMode

	// Args are forwarded to the entrypoint untouched.
	Args []string

	Settings    *Settings
	Logger      *Logger
	Diagnostics *Diagnostics

	// Python, if set, is used instead of searching for the system interpreter.
	Python string

	// GOOS, if set, replaces runtime.GOOS when deciding whether packaging is
	// possible.
	GOOS string
}

// path resolves a settings path against the project root.
func (inv *Invocation) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(inv.Root, p)
}

func (inv *Invocation) goos() string {
	if inv.GOOS != "" {
		return inv.GOOS
	}
	return runtime.GOOS
}

func (inv *Invocation) systemPython() (string, error) {
	if inv.Python != "" {
		return inv.Python, nil
	}
	return FindSystemPython()
}

// ProjectPython returns the interpreter for project code: the project's
// virtual environment if it exists, else the system interpreter.
func (inv *Invocation) ProjectPython() (string, error) {
	if p := VenvPython(inv.path(inv.Settings.EnvDir)); isRegularFile(p) {
		return p, nil
	}
	return inv.systemPython()
}

// resolve loads the entrypoint config and resolves the entrypoint. A broken
// config only produces a warning.
func (inv *Invocation) resolve() (Resolution, error) {
	s := inv.Settings
	cfgPath := inv.path(s.ConfigFile)
	cfg, err := LoadLauncherConfig(cfgPath)
	if err != nil {
		inv.Logger.Warn("ignoring entrypoint config", "path", cfgPath, "error", err)
		inv.Diagnostics.Warn("config", err)
	}

	res, err := Resolve(inv.Root, cfg, ResolveOptionsFrom(s))
	if err != nil {
		return Resolution{}, Exitf(ExitFailure, err, "resolving entrypoint")
	}
	inv.Logger.Info("resolved entrypoint", "path", res.Path, "strategy", res.Strategy)
	return res, nil
}

// childEnv is the environment handed to a packaged launcher.
func (inv *Invocation) childEnv(entry string) map[string]string {
	env := ChildEnv(inv.Root, entry)
	env[EnvEnvDir] = inv.Settings.EnvDir
	return env
}

// Launcher runs the bootstrap / packaged / direct state machine.
type Launcher struct {
	inv  *Invocation
	sup  *Supervisor
	mode LaunchMode
	// entry is the last resolved entrypoint, for the run report.
	entry     string
	exception *PythonException
}

// NewLauncher returns a Launcher for inv.
func NewLauncher(inv *Invocation) *Launcher {
	if inv.Logger == nil {
		inv.Logger = Discard()
	}
	if inv.Diagnostics == nil {
		inv.Diagnostics = &Diagnostics{}
	}
	sup := NewSupervisor(inv.Logger, inv.Settings.GracePeriod)
	sup.Diagnostics = inv.Diagnostics
	return &Launcher{inv: inv, sup: sup, mode: inv.Mode}
}

// Mode returns the current mode.
func (l *Launcher) Mode() LaunchMode {
	return l.mode
}

// Entrypoint returns the entrypoint the run resolved, if any.
func (l *Launcher) Entrypoint() string {
	return l.entry
}

// Exception returns the exception that ended the entrypoint, if it failed
// with a Python traceback.
func (l *Launcher) Exception() *PythonException {
	return l.exception
}

// Run performs one invocation. A nil error means exit 0; any other outcome
// maps to an exit code through ExitCode.
func (l *Launcher) Run(ctx context.Context) error {
	defer l.sup.Shutdown()

	l.inv.Logger.Info("launcher started", "mode", l.mode, "root", l.inv.Root)
	switch l.mode {
	case ModePackaged:
		return l.runChild(ctx)
	case ModeBootstrap:
		return l.bootstrap(ctx)
	default:
		return fmt.Errorf("%w: a run cannot start in %s mode", ErrModeTransition, l.mode)
	}
}

// runChild is child mode: resolve and run, nothing else.
func (l *Launcher) runChild(ctx context.Context) error {
	res, err := l.resolve()
	if err != nil {
		return err
	}
	python, err := l.inv.ProjectPython()
	if err != nil {
		return Exitf(ExitFailure, err, "finding python")
	}
	return l.runEntry(ctx, python, res.Path, nil)
}

func (l *Launcher) bootstrap(ctx context.Context) error {
	inv, s, logger := l.inv, l.inv.Settings, l.inv.Logger

	base, err := inv.systemPython()
	if err != nil {
		return Exitf(ExitFailure, err, "finding python")
	}
	env, err := EnsureEnvironment(ctx, base, inv.path(s.EnvDir), logger)
	if err != nil {
		return Exitf(ExitFailure, err, "provisioning environment")
	}
	if v, err := env.Version(ctx); err == nil {
		logger.Info("environment ready", "python", v.String(), "new", env.IsNew)
	} else {
		logger.Debug("could not read python version", "error", err)
	}

	if err := env.InstallRequirements(ctx, inv.path(s.Requirements)); err != nil {
		logger.Warn("requirements install failed, continuing", "error", err)
		inv.Diagnostics.Warn("requirements", err)
	}
	if err := env.EnsurePackagingTool(ctx, s.Packaging.Tool); err != nil {
		logger.Warn("packaging tool install failed, continuing", "error", err)
		inv.Diagnostics.Warn("packaging-tool", err)
	}
	if ctx.Err() != nil {
		return ErrInterrupted
	}

	pk := NewPackager(env.PythonPath, inv.Root, s.Packaging, logger)
	if !pk.Built() {
		if inv.goos() != "windows" {
			logger.Info("packaging is only done on windows; running entrypoint directly", "os", inv.goos())
			return l.runDirect(ctx, env)
		}
		if err := pk.Build(ctx); err != nil {
			logger.Warn("packaging failed; running entrypoint directly", "error", err)
			inv.Diagnostics.Warn("packaging", err)
			return l.runDirect(ctx, env)
		}
		if !pk.Built() {
			inv.Diagnostics.Warnf("packaging", "%s is missing after packaging", pk.ExecutablePath())
			return l.runDirect(ctx, env)
		}
	}
	return l.relaunch(ctx, pk.ExecutablePath())
}

// runDirect runs the entrypoint in the provisioned environment.
func (l *Launcher) runDirect(ctx context.Context, env *Environment) error {
	if err := l.transition(ModeDirect); err != nil {
		return err
	}
	res, err := l.resolve()
	if err != nil {
		return err
	}
	return l.runEntry(ctx, env.PythonPath, res.Path, env.ActivationEnv())
}

// relaunch runs the packaged executable in child mode. The entrypoint is
// only a hint for it; without one the packaged launcher still runs and
// reports the problem itself.
func (l *Launcher) relaunch(ctx context.Context, exe string) error {
	if err := l.transition(ModePackaged); err != nil {
		return err
	}
	if res, err := l.inv.resolve(); err == nil {
		l.entry = res.Path
	} else {
		l.inv.Logger.Warn("relaunching without an entrypoint", "root", l.inv.Root, "error", err)
	}

	l.inv.Logger.Info("relaunching packaged launcher", "path", exe)
	code, err := l.sup.RunAndWait(ctx, Command{
		Name: "packaged launcher",
		Path: exe,
		Args: l.inv.Args,
		Dir:  l.inv.Root,
		Env:  l.inv.childEnv(l.entry),
	})
	if err == nil && code != ExitOK && l.inv.Settings.LegacyRelaunchExitZero {
		l.inv.Logger.Info("packaged launcher failed; exiting 0 as configured", "code", code)
		return nil
	}
	return exitResult("packaged launcher", code, err)
}

// tracebackTail is how much of the entrypoint's stderr is kept to find the
// exception that ended it.
const tracebackTail = 16 << 10

func (l *Launcher) runEntry(ctx context.Context, python, entry string, env map[string]string) error {
	l.inv.Logger.Info("executing entrypoint", "path", entry, "python", python)
	stderr := newTailWriter(tracebackTail)
	code, err := l.sup.RunAndWait(ctx, Command{
		Name:   "entrypoint",
		Path:   python,
		Args:   append([]string{entry}, l.inv.Args...),
		Dir:    l.inv.Root,
		Env:    env,
		Stderr: io.MultiWriter(os.Stderr, stderr),
	})
	if err == nil && code != ExitOK {
		if exc := ParseTraceback(stderr.Bytes()); exc != nil {
			l.exception = exc
			l.inv.Logger.Error("entrypoint raised an exception", "exception", exc.Exception, "message", exc.Message)
		}
	}
	return exitResult("entrypoint", code, err)
}

func (l *Launcher) resolve() (Resolution, error) {
	res, err := l.inv.resolve()
	if err != nil {
		l.inv.Logger.Error("no entrypoint found; exiting with error", "root", l.inv.Root, "error", err)
		return res, err
	}
	l.entry = res.Path
	return res, nil
}

func (l *Launcher) transition(next LaunchMode) error {
	prev := l.mode
	mode, err := l.mode.Transition(next)
	if err != nil {
		return err
	}
	l.mode = mode
	l.inv.Logger.Info("launch mode changed", "from", prev, "to", mode)
	return nil
}

// exitResult turns the outcome of a child run into the run's error.
func exitResult(name string, code int, err error) error {
	switch {
	case errors.Is(err, ErrInterrupted):
		return err
	case err != nil:
		return Exitf(code, err, "running %s", name)
	case code != ExitOK:
		return Exitf(code, nil, "%s exited with code %d", name, code)
	}
	return nil
}
