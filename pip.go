package pylaunch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
)

// PipInstall installs one or more packages into the environment with
// "python -m pip install".
func (env *Environment) PipInstall(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	args := append([]string{"-m", "pip", "install", "--no-warn-script-location"}, packages...)
	if err := runTool(ctx, env.log(), env.PythonPath, args...); err != nil {
		return fmt.Errorf("error installing packages: %w", err)
	}
	return nil
}

// InstallRequirements installs the packages listed in the requirements file
// at manifest. A missing manifest is not an error; nothing is installed.
func (env *Environment) InstallRequirements(ctx context.Context, manifest string) error {
	if _, err := os.Stat(manifest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			env.log().Debug("no requirements file", "path", manifest)
			return nil
		}
		return fmt.Errorf("checking requirements file: %w", err)
	}

	env.log().Info("installing requirements", "path", manifest)
	if err := runTool(ctx, env.log(), env.PythonPath, "-m", "pip", "install", "--no-warn-script-location", "-r", manifest); err != nil {
		return fmt.Errorf("error installing requirements: %w", err)
	}
	return nil
}

// EnsurePackagingTool installs the packaging tool (normally "pyinstaller").
func (env *Environment) EnsurePackagingTool(ctx context.Context, tool string) error {
	if tool == "" {
		tool = "pyinstaller"
	}
	env.log().Info("installing packaging tool", "package", tool)
	return env.PipInstall(ctx, tool)
}

// PackagingToolAvailable reports whether PyInstaller can be run from the
// environment.
func (env *Environment) PackagingToolAvailable(ctx context.Context) bool {
	return exec.CommandContext(ctx, env.PythonPath, "-m", "PyInstaller", "--version").Run() == nil
}

func (env *Environment) log() *Logger {
	if env.logger == nil {
		return Discard()
	}
	return env.logger
}
