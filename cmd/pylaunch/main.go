// pylaunch - bootstrap and run a Python project
//
// Usage:
//
//	pylaunch [args...]
//
// Every argument is forwarded to the project's entrypoint. With
// PYLAUNCH_CHILD=1 the launcher only resolves and runs the entrypoint under
// PYLAUNCH_PROJECT_ROOT; otherwise it provisions the project's virtual
// environment first and, on Windows, runs the packaged launcher.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/richinsley/pylaunch"
)

func main() {
	ctx, stop := pylaunch.NotifyContext(context.Background())
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch: %v\n", err)
		return pylaunch.ExitFailure
	}

	sess, err := pylaunch.OpenSession(pylaunch.SessionOptions{
		Binary:  "pylaunch",
		Cwd:     cwd,
		LogFile: func(s *pylaunch.Settings) string { return s.Log.File },
		Echo:    os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch: %v\n", err)
		return pylaunch.ExitFailure
	}

	l := pylaunch.NewLauncher(sess.Invocation(args))
	err = l.Run(ctx)
	sess.Report.Exception = l.Exception()
	return sess.Close(l.Mode(), l.Entrypoint(), err)
}
