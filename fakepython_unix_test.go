//go:build !windows

package pylaunch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePythonScript stands in for a Python interpreter. Every invocation is
// appended to $FAKE_PYTHON_LOG as "<argv0> <args>".
const fakePythonScript = `#!/bin/sh
if [ -n "$FAKE_PYTHON_LOG" ]; then
	echo "$0 $*" >> "$FAKE_PYTHON_LOG"
fi
case "$1" in
--version)
	echo "Python ${FAKE_PYTHON_VERSION:-3.12.1}"
	exit 0
	;;
-m)
	case "$2" in
	venv)
		mkdir -p "$3/bin" && cp "$0" "$3/bin/python" && chmod 755 "$3/bin/python"
		exit $?
		;;
	PyInstaller)
		echo "No module named PyInstaller" >&2
		exit ${FAKE_PYINSTALLER_EXIT:-1}
		;;
	*)
		exit 0
		;;
	esac
	;;
esac
if [ -n "$FAKE_PYTHON_ENV_OUT" ]; then
	echo "$VIRTUAL_ENV|$PATH" > "$FAKE_PYTHON_ENV_OUT"
fi
if [ -n "$FAKE_PYTHON_TRACEBACK" ]; then
	echo "Traceback (most recent call last):" >&2
	echo "  File \"$1\", line 1, in <module>" >&2
	echo "    raise ValueError('bad input')" >&2
	echo "ValueError: bad input" >&2
	exit 1
fi
echo "ran $*"
exit ${FAKE_PYTHON_EXIT:-0}
`

// fakePython installs the fake interpreter in a fresh directory and points
// FAKE_PYTHON_LOG at a log next to it. It returns the interpreter path and a
// function reading the logged invocations.
func fakePython(t *testing.T) (string, func() []string) {
	t.Helper()
	dir := t.TempDir()
	python := filepath.Join(dir, "python3")
	require.NoError(t, os.WriteFile(python, []byte(fakePythonScript), 0755))

	logPath := filepath.Join(dir, "calls.log")
	t.Setenv("FAKE_PYTHON_LOG", logPath)
	t.Setenv("FAKE_PYTHON_EXIT", "")
	t.Setenv("FAKE_PYTHON_TRACEBACK", "")
	t.Setenv("FAKE_PYINSTALLER_EXIT", "")
	t.Setenv("FAKE_PYTHON_VERSION", "")
	t.Setenv("FAKE_PYTHON_ENV_OUT", "")

	return python, func() []string {
		data, err := os.ReadFile(logPath)
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
}

// writeScript writes an executable shell script.
func writeScript(t *testing.T, path, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}
