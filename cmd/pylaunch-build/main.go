// pylaunch-build - package the launcher into a one-file executable
//
// Usage:
//
//	pylaunch-build
//
// Rebuilds dist/<name>.exe with PyInstaller from the project's environment.
// Exits 2 when PyInstaller is not installed there.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/richinsley/pylaunch"
)

func main() {
	ctx, stop := pylaunch.NotifyContext(context.Background())
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-build: %v\n", err)
		return pylaunch.ExitFailure
	}

	sess, err := pylaunch.OpenSession(pylaunch.SessionOptions{
		Binary:  "pylaunch-build",
		Cwd:     cwd,
		LogFile: func(s *pylaunch.Settings) string { return s.Log.File },
		Echo:    os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-build: %v\n", err)
		return pylaunch.ExitFailure
	}

	return sess.Close(sess.Env.Mode, "", build(ctx, sess))
}

func build(ctx context.Context, sess *pylaunch.Session) error {
	inv := sess.Invocation(nil)
	python, err := inv.ProjectPython()
	if err != nil {
		return pylaunch.Exitf(pylaunch.ExitFailure, err, "finding python")
	}

	env := &pylaunch.Environment{PythonPath: python}
	if !env.PackagingToolAvailable(ctx) {
		sess.Logger.Error("PyInstaller is not available; install it with pip install pyinstaller and rerun", "python", python)
		return pylaunch.ErrPackagingToolMissing
	}

	pk := pylaunch.NewPackager(python, inv.Root, sess.Settings.Packaging, sess.Logger)
	pk.Force = true
	if err := pk.Build(ctx); err != nil {
		return pylaunch.Exitf(pylaunch.ExitFailure, err, "building %s", pk.ExecutablePath())
	}
	sess.Logger.Info("packaged launcher built", "path", pk.ExecutablePath())
	return nil
}
