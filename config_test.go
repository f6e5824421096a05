package pylaunch

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLauncherConfig_Missing(t *testing.T) {
	cfg, err := LoadLauncherConfig(filepath.Join(t.TempDir(), "launcher_config.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Entrypoints)
}

func TestLoadLauncherConfig_Valid(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "launcher_config.json", `{
		"entrypoints": ["src/app.py", "main.py"],
		"unknown": {"ignored": true}
	}`)

	cfg, err := LoadLauncherConfig(p)
	require.NoError(t, err)

	want := LauncherConfig{Entrypoints: []string{"src/app.py", "main.py"}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLauncherConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "launcher_config.json", `{"entrypoints": [`)

	cfg, err := LoadLauncherConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
	assert.Empty(t, cfg.Entrypoints)
}

func TestLoadLauncherConfig_WrongType(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "launcher_config.json", `{"entrypoints": "main.py"}`)

	cfg, err := LoadLauncherConfig(p)
	require.Error(t, err)
	assert.Empty(t, cfg.Entrypoints)
}
