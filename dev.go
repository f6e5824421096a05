package pylaunch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"
)

// DevPlan is a backend and frontend dev-server pair.
type DevPlan struct {
	Backend  Command
	Frontend Command

	// StartupDelay is slept after each spawn to let the server come up.
	StartupDelay time.Duration

	// URL is opened in the browser once both servers run, if OpenBrowser is set.
	URL         string
	OpenBrowser bool
}

// DevPlanFrom builds the dev plan for the project at root. Commands are
// shell-quoted strings; a leading "python" or "python3" is replaced by
// python so the backend runs in the project's environment.
func DevPlanFrom(root string, s DevSettings, python string) (DevPlan, error) {
	backend, err := devCommand("backend", s.Backend, root, s.BackendDir, python)
	if err != nil {
		return DevPlan{}, err
	}
	frontend, err := devCommand("frontend", s.Frontend, root, s.FrontendDir, python)
	if err != nil {
		return DevPlan{}, err
	}
	return DevPlan{
		Backend:      backend,
		Frontend:     frontend,
		StartupDelay: s.StartupDelay,
		URL:          s.URL,
		OpenBrowser:  s.OpenBrowser,
	}, nil
}

func devCommand(name, line, root, dir, python string) (Command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return Command{}, fmt.Errorf("parsing %s command %q: %w", name, line, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("%s command is empty", name)
	}
	if python != "" && (words[0] == "python" || words[0] == "python3") {
		words[0] = python
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return Command{
		Name: name,
		Path: words[0],
		Args: words[1:],
		Dir:  dir,
	}, nil
}

// childExit reports the first dev server to exit.
type childExit struct {
	child *Child
}

func (e *childExit) Error() string {
	return e.child.Name + " exited"
}

// RunDev starts the backend, then the frontend, opens the browser and waits
// until either server exits or ctx is cancelled. The other server is then
// shut down. The exit code is the first server's, or ExitInterrupted with
// ErrInterrupted on cancellation.
func (s *Supervisor) RunDev(ctx context.Context, plan DevPlan) (int, error) {
	defer s.Shutdown()

	backend, err := s.Spawn(ctx, plan.Backend)
	if err != nil {
		return ExitFailure, err
	}
	if !sleepContext(ctx, plan.StartupDelay) {
		return ExitInterrupted, ErrInterrupted
	}

	frontend, err := s.Spawn(ctx, plan.Frontend)
	if err != nil {
		return ExitFailure, err
	}
	if !sleepContext(ctx, plan.StartupDelay) {
		return ExitInterrupted, ErrInterrupted
	}

	if plan.OpenBrowser && plan.URL != "" {
		s.logger.Info("opening browser", "url", plan.URL)
		if err := s.openBrowser(plan.URL); err != nil {
			s.logger.Warn("could not open browser", "url", plan.URL, "error", err)
			if s.Diagnostics != nil {
				s.Diagnostics.Warn("browser", err)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range []*Child{backend, frontend} {
		g.Go(func() error {
			select {
			case <-c.done:
				return &childExit{child: c}
			case <-gctx.Done():
				return nil
			}
		})
	}

	var exited *childExit
	if err := g.Wait(); errors.As(err, &exited) {
		s.logger.Info("dev server exited, stopping the other", "name", exited.child.Name)
		return childResult(exited.child)
	}
	s.logger.Warn("interrupted, stopping dev servers")
	return ExitInterrupted, ErrInterrupted
}

// sleepContext sleeps for d and reports false if ctx ended first.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
