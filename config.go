package pylaunch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LauncherConfig is the project's optional launcher_config.json.
type LauncherConfig struct {
	// Entrypoints lists candidate entry files relative to the project root,
	// most preferred first.
	Entrypoints []string `json:"entrypoints"`
}

// LoadLauncherConfig reads the entrypoint config at path.
//
// It never fails the run: a missing file yields an empty config and a nil
// error; an unreadable or malformed file yields an empty config together with
// the error, which callers record as a warning.
func LoadLauncherConfig(path string) (LauncherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LauncherConfig{}, nil
		}
		return LauncherConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg LauncherConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return LauncherConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
