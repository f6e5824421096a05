package pylaunch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment is a Python virtual environment owned by a project.
type Environment struct {
	// Name is the directory name of the environment (e.g. ".venv").
	Name string

	// EnvPath is the full path to the environment directory.
	EnvPath string

	// EnvBinPath is the path to the bin (or Scripts on Windows) directory.
	EnvBinPath string

	// PythonPath is the full path to the environment's Python executable.
	PythonPath string

	// IsNew indicates whether this environment was created by this run (true)
	// or already existed (false).
	IsNew bool

	logger *Logger
}

// FindSystemPython returns the path of the system Python interpreter.
//
// On Unix systems, it searches for "python3" then "python" using exec.LookPath.
// On Windows, it first tries "py" (the Python launcher), then "python" while
// filtering out the Microsoft Store placeholder executables.
func FindSystemPython() (string, error) {
	if runtime.GOOS != "windows" {
		// look for explicit python3 first
		if p, err := exec.LookPath("python3"); err == nil {
			return p, nil
		}
		p, err := exec.LookPath("python")
		if err != nil {
			return "", fmt.Errorf("python not found: %w", err)
		}
		return p, nil
	}

	// microsoft has 'place holders' for python (AppData\Local\Microsoft\WindowsApps\python.exe)
	// that open the store instead of running anything, so they are skipped
	for _, name := range []string{"py", "python"} {
		out, err := exec.Command("where", name).Output()
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(out), "\n") {
			p := strings.TrimSpace(line)
			if p != "" && !strings.Contains(p, `Microsoft\WindowsApps`) {
				return p, nil
			}
		}
	}
	return "", errors.New("python not found: neither py nor python is on PATH")
}

// VenvBinDir returns the executables directory of the environment at dir.
func VenvBinDir(dir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "Scripts")
	}
	return filepath.Join(dir, "bin")
}

// VenvPython returns the interpreter path of the environment at dir.
// It does not check that the file exists.
func VenvPython(dir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(VenvBinDir(dir), "python.exe")
	}
	return filepath.Join(VenvBinDir(dir), "python")
}

// EnsureEnvironment returns the virtual environment at dir, creating it with
// "<basePython> -m venv <dir>" when the directory does not exist yet.
// An existing directory is reused as is.
func EnsureEnvironment(ctx context.Context, basePython, dir string, logger *Logger) (*Environment, error) {
	if logger == nil {
		logger = Discard()
	}

	env := &Environment{
		Name:       filepath.Base(dir),
		EnvPath:    dir,
		EnvBinPath: VenvBinDir(dir),
		PythonPath: VenvPython(dir),
		logger:     logger,
	}

	_, err := os.Stat(dir)
	switch {
	case err == nil:
		logger.Info("using existing virtual environment", "path", dir)
		return env, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("checking virtual environment: %w", err)
	}

	// an unreadable version is left for venv itself to fail on
	if v, err := pythonVersion(ctx, basePython); err != nil {
		logger.Debug("could not read python version", "python", basePython, "error", err)
	} else if v.Compare(MinVenvPython) < 0 {
		return nil, fmt.Errorf("%w: %s is Python %s, venv needs %s or newer", ErrPythonTooOld, basePython, v, MinVenvPython)
	}

	logger.Info("creating virtual environment", "path", dir, "python", basePython)
	if err := runTool(ctx, logger, basePython, "-m", "venv", dir); err != nil {
		return nil, fmt.Errorf("failed to create virtual environment: %w", err)
	}
	env.IsNew = true
	return env, nil
}

// Version runs the environment's interpreter with --version.
func (env *Environment) Version(ctx context.Context) (Version, error) {
	return pythonVersion(ctx, env.PythonPath)
}

// ActivationEnv returns the variables an activated environment would set:
// VIRTUAL_ENV, and PATH with the environment's bin directory first so its
// console scripts win.
func (env *Environment) ActivationEnv() map[string]string {
	path := env.EnvBinPath
	if cur := os.Getenv("PATH"); cur != "" {
		path += string(os.PathListSeparator) + cur
	}
	return map[string]string{
		"VIRTUAL_ENV": env.EnvPath,
		"PATH":        path,
	}
}

func pythonVersion(ctx context.Context, python string) (Version, error) {
	// python 2 prints its version on stderr
	out, err := exec.CommandContext(ctx, python, "--version").CombinedOutput()
	if err != nil {
		return Version{}, fmt.Errorf("error getting Python version: %w", err)
	}
	return ParsePythonVersion(strings.TrimSpace(string(out)))
}

// stderrTail bounds how much of a failed tool's stderr ends up in its error.
const stderrTail = 512

// runTool runs name with args to completion. Both output streams are relayed
// to the debug log one line at a time; a failure carries the end of stderr.
func runTool(ctx context.Context, logger *Logger, name string, args ...string) error {
	out := logger.LineWriter(slog.LevelDebug, "tool", filepath.Base(name))
	defer out.Close()

	stderr := newTailWriter(stderrTail)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = io.MultiWriter(out, stderr)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s %s: %w", filepath.Base(name), strings.Join(args, " "), err)
		}
		return fmt.Errorf("%s %s: %w, stderr: %s", filepath.Base(name), strings.Join(args, " "), err, msg)
	}
	return nil
}
