package pylaunch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables shared between a launcher and the processes it starts.
const (
	EnvChild       = "PYLAUNCH_CHILD"
	EnvProjectRoot = "PYLAUNCH_PROJECT_ROOT"
	EnvEntrypoint  = "PYLAUNCH_ENTRYPOINT"
	EnvURL         = "PYLAUNCH_URL"
	EnvLogLevel    = "PYLAUNCH_LOG_LEVEL"
	EnvSettings    = "PYLAUNCH_SETTINGS"
	EnvEnvDir      = "PYLAUNCH_ENV_DIR"
)

// SettingsFile is the settings document looked up at the project root.
const SettingsFile = "launcher.yaml"

// Settings holds the launcher's own operational configuration.
// All of it is optional; see DefaultSettings.
type Settings struct {
	EnvDir       string   `yaml:"env_dir"`
	Requirements string   `yaml:"requirements"`
	ConfigFile   string   `yaml:"config_file"`
	Candidates   []string `yaml:"candidates"`

	Scan      ScanSettings      `yaml:"scan"`
	Packaging PackagingSettings `yaml:"packaging"`

	// GracePeriod is how long a terminated child may take before it is killed.
	GracePeriod time.Duration `yaml:"grace_period"`

	// LegacyRelaunchExitZero makes a relaunch of the packaged executable
	// always exit 0, whatever the packaged launcher returned.
	LegacyRelaunchExitZero bool `yaml:"legacy_relaunch_exit_zero"`

	Log     LogSettings     `yaml:"log"`
	Wrapper WrapperSettings `yaml:"wrapper"`
	Dev     DevSettings     `yaml:"dev"`
}

// ScanSettings tunes the heuristic entrypoint scan.
type ScanSettings struct {
	Suffix string `yaml:"suffix"`
	Limit  int    `yaml:"limit"`
}

// PackagingSettings names the packaged launcher and where PyInstaller puts it.
type PackagingSettings struct {
	Tool     string `yaml:"tool"`
	Name     string `yaml:"name"`
	DistDir  string `yaml:"dist_dir"`
	BuildDir string `yaml:"build_dir"`
}

// LogSettings contains log file settings.
type LogSettings struct {
	File        string `yaml:"file"`
	WrapperFile string `yaml:"wrapper_file"`
	Level       string `yaml:"level"`
}

// WrapperSettings contains settings for the wrapper variant.
type WrapperSettings struct {
	FallbackLauncher string `yaml:"fallback_launcher"`
}

// DevSettings describes the backend + frontend dev-server pair.
// Commands are shell-quoted strings.
type DevSettings struct {
	Backend      string        `yaml:"backend"`
	BackendDir   string        `yaml:"backend_dir"`
	Frontend     string        `yaml:"frontend"`
	FrontendDir  string        `yaml:"frontend_dir"`
	URL          string        `yaml:"url"`
	StartupDelay time.Duration `yaml:"startup_delay"`
	OpenBrowser  bool          `yaml:"open_browser"`
}

// DefaultSettings returns the settings used when no launcher.yaml exists.
func DefaultSettings() *Settings {
	return &Settings{
		EnvDir:       ".venv",
		Requirements: "requirements.txt",
		ConfigFile:   "launcher_config.json",
		Candidates:   []string{"main.py", "app.py", "run.py", "start.py", "bootstrap.py"},
		Scan: ScanSettings{
			Suffix: ".py",
			Limit:  2048,
		},
		Packaging: PackagingSettings{
			Tool:     "pyinstaller",
			Name:     "PyLaunchLauncher",
			DistDir:  "dist",
			BuildDir: "build",
		},
		GracePeriod: 5 * time.Second,
		Log: LogSettings{
			File:        "launcher.log",
			WrapperFile: "launcher_wrapper.log",
			Level:       "info",
		},
		Wrapper: WrapperSettings{
			FallbackLauncher: "enhanced_launcher.py",
		},
		Dev: DevSettings{
			Backend:      "python -m uvicorn app:app --reload",
			Frontend:     "npm run dev",
			FrontendDir:  "frontend",
			URL:          "http://localhost:5173",
			StartupDelay: 2 * time.Second,
			OpenBrowser:  true,
		},
	}
}

// LoadSettings reads settings for the project at root.
//
// The loading order is:
//  1. DefaultSettings
//  2. launcher.yaml at root, or the file named by PYLAUNCH_SETTINGS
//  3. PYLAUNCH_* environment overrides
//
// A missing launcher.yaml at root is not an error. A missing file named
// explicitly by PYLAUNCH_SETTINGS is.
func LoadSettings(root string) (*Settings, error) {
	cfg := DefaultSettings()

	path := os.Getenv(EnvSettings)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, SettingsFile)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing settings file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the settings.
func applyEnvOverrides(cfg *Settings) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvURL); v != "" {
		cfg.Dev.URL = v
	}
}

// Validate checks the settings and reports every problem at once.
func (s *Settings) Validate() error {
	var errs []string

	if s.EnvDir == "" {
		errs = append(errs, "env_dir is required")
	}
	if s.Scan.Suffix == "" {
		errs = append(errs, "scan.suffix is required")
	}
	if s.Scan.Limit <= 0 {
		errs = append(errs, "scan.limit must be positive")
	}
	if s.Packaging.Name == "" {
		errs = append(errs, "packaging.name is required")
	}
	if s.Packaging.DistDir == "" || s.Packaging.BuildDir == "" {
		errs = append(errs, "packaging.dist_dir and packaging.build_dir are required")
	}
	if s.GracePeriod <= 0 {
		errs = append(errs, "grace_period must be positive")
	}
	if s.Dev.StartupDelay < 0 {
		errs = append(errs, "dev.startup_delay must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LaunchEnv is what an invocation learns from its environment variables.
type LaunchEnv struct {
	Mode LaunchMode
	Root string
}

// ReadLaunchEnv reads the child-mode flag and project root. The root defaults
// to cwd and is made absolute.
func ReadLaunchEnv(cwd string) (LaunchEnv, error) {
	root := os.Getenv(EnvProjectRoot)
	if root == "" {
		root = cwd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return LaunchEnv{}, fmt.Errorf("resolving project root: %w", err)
	}
	return LaunchEnv{
		Mode: ModeFromChildFlag(os.Getenv(EnvChild)),
		Root: abs,
	}, nil
}

// ChildEnv returns the variables handed to a relaunched packaged launcher.
// entry may be empty when the caller did not resolve one.
func ChildEnv(root, entry string) map[string]string {
	env := map[string]string{
		EnvChild:       "1",
		EnvProjectRoot: root,
	}
	if entry != "" {
		env[EnvEntrypoint] = entry
	}
	return env
}
