package pylaunch

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

// packagedLauncherScript is the program PyInstaller freezes into the
// packaged launcher.
//
//go:embed scripts/packaged_launcher.py
var packagedLauncherScript []byte

// packagedLauncherFile is the stub's file name inside the build directory.
const packagedLauncherFile = "packaged_launcher.py"

// Packager builds the one-file packaged launcher with PyInstaller.
type Packager struct {
	// Python is the interpreter that has PyInstaller installed.
	Python string

	// Root is the project root. Relative directories are taken from here.
	Root string

	// Name is the executable's base name.
	Name string

	DistDir  string
	BuildDir string

	// Force rebuilds even when the dist directory already has content.
	Force bool

	Logger *Logger
}

// NewPackager returns a Packager for the project at root.
func NewPackager(python, root string, s PackagingSettings, logger *Logger) *Packager {
	return &Packager{
		Python:   python,
		Root:     root,
		Name:     s.Name,
		DistDir:  s.DistDir,
		BuildDir: s.BuildDir,
		Logger:   logger,
	}
}

// ExecutablePath is where the packaged launcher lives once built. The path
// is the same on every platform since only Windows builds are relaunched.
func (p *Packager) ExecutablePath() string {
	return filepath.Join(p.dir(p.DistDir), p.Name+".exe")
}

// Built reports whether the packaged executable exists.
func (p *Packager) Built() bool {
	return isRegularFile(p.ExecutablePath())
}

// Build runs PyInstaller in one-file mode.
//
// Unless Force is set, a dist directory with any entry in it counts as
// already built and nothing runs. Nothing checks that the existing
// artifact is current.
func (p *Packager) Build(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = Discard()
	}

	dist := p.dir(p.DistDir)
	if !p.Force {
		if entries, err := os.ReadDir(dist); err == nil && len(entries) > 0 {
			logger.Info("dist directory not empty, skipping packaging", "dist", dist)
			return nil
		}
	}

	build := p.dir(p.BuildDir)
	if err := os.MkdirAll(build, 0755); err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	stub := filepath.Join(build, packagedLauncherFile)
	if err := os.WriteFile(stub, packagedLauncherScript, 0644); err != nil {
		return fmt.Errorf("writing launcher stub: %w", err)
	}

	logger.Info("packaging launcher", "name", p.Name, "dist", dist)
	err := runTool(ctx, logger, p.Python, "-m", "PyInstaller",
		"--onefile",
		"--name", p.Name,
		"--distpath", dist,
		"--workpath", build,
		"--specpath", build,
		stub,
	)
	if err != nil {
		return fmt.Errorf("packaging failed: %w", err)
	}
	return nil
}

func (p *Packager) dir(d string) string {
	if filepath.IsAbs(d) {
		return d
	}
	return filepath.Join(p.Root, d)
}
