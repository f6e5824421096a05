package pylaunch

import (
	"io"
	"path/filepath"
)

// Session is the state every binary sets up before doing its work and
// settles afterwards: where it runs, its settings, its log, the warnings it
// collects and the report of the run.
type Session struct {
	Binary      string
	Env         LaunchEnv
	Settings    *Settings
	Logger      *Logger
	Diagnostics *Diagnostics
	Report      *RunReport
}

// SessionOptions configures OpenSession.
type SessionOptions struct {
	// Binary names the program in the run report.
	Binary string

	// Cwd is the working directory; log files are created in it.
	Cwd string

	// LogFile picks the log file name from the settings.
	LogFile func(*Settings) string

	// Echo, if set, receives a copy of every log line.
	Echo io.Writer
}

// OpenSession reads the launch environment and settings and opens the log.
// Settings errors are fatal.
func OpenSession(opts SessionOptions) (*Session, error) {
	env, err := ReadLaunchEnv(opts.Cwd)
	if err != nil {
		return nil, err
	}
	settings, err := LoadSettings(env.Root)
	if err != nil {
		return nil, err
	}

	logPath := ""
	if opts.LogFile != nil {
		logPath = opts.LogFile(settings)
		if logPath != "" && !filepath.IsAbs(logPath) {
			logPath = filepath.Join(opts.Cwd, logPath)
		}
	}
	logger := NewLogger(LogOptions{
		Path:  logPath,
		Echo:  opts.Echo,
		Level: settings.Log.Level,
	})

	return &Session{
		Binary:      opts.Binary,
		Env:         env,
		Settings:    settings,
		Logger:      logger,
		Diagnostics: &Diagnostics{},
		Report:      NewRunReport(opts.Binary, env.Root, env.Mode),
	}, nil
}

// Invocation returns the run description for the session.
func (s *Session) Invocation(args []string) *Invocation {
	return &Invocation{
		Root:        s.Env.Root,
		Mode:        s.Env.Mode,
		Args:        args,
		Settings:    s.Settings,
		Logger:      s.Logger,
		Diagnostics: s.Diagnostics,
	}
}

// Close logs the collected warnings, saves the run report and returns the
// process exit code for err.
func (s *Session) Close(mode LaunchMode, entry string, err error) int {
	code := ExitCode(err)
	if err != nil {
		s.Logger.Error("run failed", "error", err, "code", code)
	}
	s.Diagnostics.Flush(s.Logger)

	s.Report.Finish(mode, entry, err, s.Diagnostics)
	if serr := NewReportStore(s.Env.Root).Save(s.Report); serr != nil {
		s.Logger.Debug("could not save run report", "error", serr)
	}
	s.Logger.Info("exiting", "code", code)
	return code
}
