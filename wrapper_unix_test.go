//go:build !windows

package pylaunch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapper_RunsPackagedLauncher(t *testing.T) {
	root := t.TempDir()
	main := writeFile(t, root, "main.py", "")
	writeScript(t, filepath.Join(root, "dist", "PyLaunchLauncher.exe"), `echo "hello from packaged $PYLAUNCH_CHILD $*"
echo "oops" >&2
exit 3
`)
	logPath := filepath.Join(t.TempDir(), "launcher_wrapper.log")

	inv := newTestInvocation(root, "", ModeBootstrap)
	inv.Logger = NewLogger(LogOptions{Path: logPath})
	w := NewWrapper(inv)
	err := w.Run(context.Background())

	assert.Equal(t, 3, ExitCode(err))
	assert.Equal(t, main, w.Entrypoint())

	data, rerr := os.ReadFile(logPath)
	require.NoError(t, rerr)
	log := string(data)
	assert.Contains(t, log, "INFO hello from packaged 1 --flag x stream=child")
	assert.Contains(t, log, "INFO oops stream=child")
	assert.Contains(t, log, "packaged launcher finished code=3")
}

func TestWrapper_NoLauncherAtAll(t *testing.T) {
	root := t.TempDir()

	w := NewWrapper(newTestInvocation(root, "", ModeBootstrap))
	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "enhanced_launcher.py not found")
}

func TestWrapper_Fallback(t *testing.T) {
	python, calls := fakePython(t)
	t.Setenv("FAKE_PYTHON_EXIT", "6")
	root := t.TempDir()
	fallback := writeFile(t, root, "enhanced_launcher.py", "")

	w := NewWrapper(newTestInvocation(root, python, ModeBootstrap))
	err := w.Run(context.Background())

	assert.Equal(t, 6, ExitCode(err))
	assert.Equal(t, []string{python + " " + fallback + " --flag x"}, calls())
}

func TestWrapper_UnstartableLauncherFallsBack(t *testing.T) {
	python, calls := fakePython(t)
	root := t.TempDir()
	writeFile(t, root, "main.py", "")
	// not executable
	writeFile(t, root, "dist/PyLaunchLauncher.exe", "#!/bin/sh\nexit 0\n")
	fallback := writeFile(t, root, "enhanced_launcher.py", "")

	inv := newTestInvocation(root, python, ModeBootstrap)
	w := NewWrapper(inv)
	require.NoError(t, w.Run(context.Background()))

	assert.Equal(t, []string{"wrapper"}, warningSources(inv.Diagnostics))
	assert.Equal(t, []string{python + " " + fallback + " --flag x"}, calls())
}
