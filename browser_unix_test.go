//go:build !windows

package pylaunch

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBrowser_NoOpener(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	err := OpenBrowser("http://localhost:5173")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Contains(t, err.Error(), "opening browser")
}

func TestSupervisor_OpensBrowserByDefault(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	sup := NewSupervisor(nil, 0)
	require.NotNil(t, sup.openBrowser)
	assert.ErrorIs(t, sup.openBrowser("http://localhost:5173"), exec.ErrNotFound)
}
