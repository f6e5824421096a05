// Package pylaunch bootstraps and launches Python projects from a single Go binary.
//
// A launch locates the project's entrypoint, provisions a virtual environment
// next to it when needed, optionally packages a one-file launcher with
// PyInstaller, and then supervises the child processes it starts, relaying
// their output and exit codes.
//
// # Launch Modes
//
// Every invocation runs in exactly one LaunchMode:
//
//   - Bootstrap: provision the environment, install requirements and the
//     packaging tool, then either relaunch a packaged executable or fall back
//     to running the entrypoint directly.
//   - Packaged: started with PYLAUNCH_CHILD=1 (by a bootstrap parent or a
//     wrapper). Resolves and runs the entrypoint; never bootstraps again.
//   - Direct: run the entrypoint in the provisioned environment because
//     packaging is impossible or failed.
//
// Bootstrap may move to Packaged or Direct. Both are terminal.
//
// # Entrypoint Resolution
//
// The entrypoint is found with three strategies, first match wins:
//
//  1. paths listed in launcher_config.json under "entrypoints"
//  2. conventional names (main.py, app.py, run.py, start.py, bootstrap.py)
//  3. a lexicographic scan for a script whose first 2KB look like a main program
//
// For example:
//
//	res, err := pylaunch.Resolve(root, cfg, pylaunch.ResolveOptions{})
//	if errors.Is(err, pylaunch.ErrNoEntrypoint) {
//		// nothing to run
//	}
//
// # Environments
//
//	base, err := pylaunch.FindSystemPython()
//	env, err := pylaunch.EnsureEnvironment(ctx, base, filepath.Join(root, ".venv"), logger)
//	err = env.InstallRequirements(ctx, filepath.Join(root, "requirements.txt"))
//
// # Supervision
//
// A Supervisor owns every child it spawns. Shutdown terminates live children
// in creation order, waits up to the grace period and then kills them:
//
//	sup := pylaunch.NewSupervisor(logger, 5*time.Second)
//	defer sup.Shutdown()
//	code, err := sup.RunAndWait(ctx, pylaunch.Command{Path: python, Args: []string{entry}})
//
// # Platform Support
//
// Linux and macOS children run in their own process group and are signalled
// with SIGTERM/SIGKILL. On Windows children get a new process group and are
// sent CTRL_BREAK before being killed. Packaging is only attempted on Windows.
package pylaunch
