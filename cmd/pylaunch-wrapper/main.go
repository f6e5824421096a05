// pylaunch-wrapper - start the packaged launcher or fall back to Python
//
// Usage:
//
//	pylaunch-wrapper [-v] [args...]
//	pylaunch-wrapper --report
//
// Runs dist/<name>.exe when it exists and logs its output to
// launcher_wrapper.log; otherwise runs the fallback launcher script with the
// project's Python.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/richinsley/pylaunch"
	flag "github.com/spf13/pflag"
)

func main() {
	ctx, stop := pylaunch.NotifyContext(context.Background())
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("pylaunch-wrapper", flag.ContinueOnError)
	flags.SetInterspersed(false)
	verbose := flags.BoolP("verbose", "v", false, "Echo log lines to stdout")
	report := flags.Bool("report", false, "Print the last run report and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return pylaunch.ExitOK
		}
		return pylaunch.ExitFailure
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-wrapper: %v\n", err)
		return pylaunch.ExitFailure
	}

	if *report {
		return printReport(cwd)
	}

	var echo io.Writer
	if *verbose {
		echo = os.Stdout
	}
	sess, err := pylaunch.OpenSession(pylaunch.SessionOptions{
		Binary:  "pylaunch-wrapper",
		Cwd:     cwd,
		LogFile: func(s *pylaunch.Settings) string { return s.Log.WrapperFile },
		Echo:    echo,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-wrapper: %v\n", err)
		return pylaunch.ExitFailure
	}
	if *verbose {
		sess.Logger.Info("verbose mode enabled")
	}

	w := pylaunch.NewWrapper(sess.Invocation(flags.Args()))
	err = w.Run(ctx)
	return sess.Close(sess.Env.Mode, w.Entrypoint(), err)
}

func printReport(cwd string) int {
	env, err := pylaunch.ReadLaunchEnv(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-wrapper: %v\n", err)
		return pylaunch.ExitFailure
	}
	r, err := pylaunch.NewReportStore(env.Root).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pylaunch-wrapper: %v\n", err)
		return pylaunch.ExitFailure
	}
	r.Print(os.Stdout)
	return pylaunch.ExitOK
}
