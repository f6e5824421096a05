package pylaunch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates root/rel with content, making parent directories.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestResolve_OnlyCandidate(t *testing.T) {
	root := t.TempDir()
	app := writeFile(t, root, "app.py", "print('hi')\n")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, app, res.Path)
	assert.Equal(t, StrategyCandidate, res.Strategy)
}

func TestResolve_CandidateOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "start.py", "")
	run := writeFile(t, root, "run.py", "")
	writeFile(t, root, "bootstrap.py", "")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, run, res.Path)
}

func TestResolve_ConfigWinsOverCandidates(t *testing.T) {
	root := t.TempDir()
	start := writeFile(t, root, "src/start.py", "")
	writeFile(t, root, "main.py", "")

	res, err := Resolve(root, LauncherConfig{Entrypoints: []string{"src/start.py"}}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, start, res.Path)
	assert.Equal(t, StrategyConfig, res.Strategy)
}

func TestResolve_ConfigSkipsMissingAndDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	second := writeFile(t, root, "tools/serve.py", "")
	writeFile(t, root, "main.py", "")

	cfg := LauncherConfig{Entrypoints: []string{"", "missing.py", "pkg", "tools/serve.py"}}
	res, err := Resolve(root, cfg, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, second, res.Path)
}

func TestResolve_MissingEntrypointsKeyFallsThrough(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "launcher_config.json", `{"name": "demo"}`)
	main := writeFile(t, root, "main.py", "")

	cfg, err := LoadLauncherConfig(filepath.Join(root, "launcher_config.json"))
	require.NoError(t, err)

	res, err := Resolve(root, cfg, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, main, res.Path)
	assert.Equal(t, StrategyCandidate, res.Strategy)
}

func TestResolve_HeuristicSingleMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib/util.py", "def helper():\n    pass\n")
	server := writeFile(t, root, "lib/server.py", "import sys\n\ndef main(argv):\n    return 0\n")
	writeFile(t, root, "notes.txt", "def main(\n")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, server, res.Path)
	assert.Equal(t, StrategyHeuristic, res.Strategy)
}

func TestResolve_HeuristicLexicographicFirst(t *testing.T) {
	root := t.TempDir()
	beta := "if __name__ == '__main__':\n    pass\n"
	alpha := "if __name__ == \"__main__\":\n    pass\n"
	writeFile(t, root, "beta.py", beta)
	first := writeFile(t, root, "alpha.py", alpha)

	for i := 0; i < 3; i++ {
		res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, first, res.Path)
	}
}

func TestResolve_HeuristicReadsOnlyPrefix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "late.py", strings.Repeat("#", 2048)+"\ndef main():\n    pass\n")

	_, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.ErrorIs(t, err, ErrNoEntrypoint)

	// a larger limit sees the marker
	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{Limit: 4096})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "late.py"), res.Path)
}

func TestResolve_HeuristicMixedFileSizes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", strings.Repeat("x = 1\n", 1000))
	writeFile(t, root, "b.py", "")
	writeFile(t, root, "c.py", "y = 2\n")
	want := writeFile(t, root, "d.py", "def main():\n")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, want, res.Path)
}

func TestResolve_HeuristicFollowsSymlinks(t *testing.T) {
	root := t.TempDir()
	target := writeFile(t, t.TempDir(), "shared/serve.py", "if __name__ == '__main__':\n    serve()\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "tools"), 0755))

	// sorts first but points nowhere
	if err := os.Symlink(filepath.Join(root, "missing.py"), filepath.Join(root, "tools", "a.py")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	link := filepath.Join(root, "tools", "b.py")
	require.NoError(t, os.Symlink(target, link))

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, link, res.Path)
	assert.Equal(t, StrategyHeuristic, res.Strategy)
}

func TestResolve_HeuristicSkipsHiddenAndEnvDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".venv/bin/tool.py", "def main():\n")
	writeFile(t, root, ".git/hooks/x.py", "def main():\n")
	writeFile(t, root, "build/gen.py", "def main():\n")
	writeFile(t, root, "dist/out.py", "def main():\n")
	writeFile(t, root, "node_modules/pkg/a.py", "def main():\n")
	want := writeFile(t, root, "zz/real.py", "def main():\n")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptionsFrom(DefaultSettings()))
	require.NoError(t, err)
	assert.Equal(t, want, res.Path)
}

func TestResolve_NoEntrypoint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib.py", "x = 1\n")

	_, err := Resolve(root, LauncherConfig{}, ResolveOptions{})
	require.ErrorIs(t, err, ErrNoEntrypoint)
}

func TestResolve_CustomSuffix(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "def main():\n")
	want := writeFile(t, root, "b.pyw", "def main():\n")

	res, err := Resolve(root, LauncherConfig{}, ResolveOptions{Suffix: ".pyw"})
	require.NoError(t, err)
	assert.Equal(t, want, res.Path)
}
