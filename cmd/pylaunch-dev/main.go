// pylaunch-dev - run a project's backend and frontend dev servers
//
// Usage:
//
//	pylaunch-dev
//
// Starts the backend, then the frontend, opens the frontend URL in the
// browser and waits. When either server exits, or on interrupt, both are
// stopped.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/richinsley/pylaunch"
)

func main() {
	ctx, stop := pylaunch.NotifyContext(context.Background())
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-dev: %v\n", err)
		return pylaunch.ExitFailure
	}

	sess, err := pylaunch.OpenSession(pylaunch.SessionOptions{
		Binary:  "pylaunch-dev",
		Cwd:     cwd,
		LogFile: func(s *pylaunch.Settings) string { return s.Log.File },
		Echo:    os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-dev: %v\n", err)
		return pylaunch.ExitFailure
	}

	return sess.Close(sess.Env.Mode, "", runDev(ctx, sess))
}

func runDev(ctx context.Context, sess *pylaunch.Session) error {
	inv := sess.Invocation(nil)
	python, err := inv.ProjectPython()
	if err != nil {
		return pylaunch.Exitf(pylaunch.ExitFailure, err, "finding python")
	}
	plan, err := pylaunch.DevPlanFrom(inv.Root, sess.Settings.Dev, python)
	if err != nil {
		return pylaunch.Exitf(pylaunch.ExitFailure, err, "reading dev settings")
	}

	sup := pylaunch.NewSupervisor(sess.Logger, sess.Settings.GracePeriod)
	sup.Diagnostics = sess.Diagnostics
	code, err := sup.RunDev(ctx, plan)
	if err == nil && code != pylaunch.ExitOK {
		return pylaunch.Exitf(code, nil, "dev server exited with code %d", code)
	}
	return err
}
