package pylaunch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// logTimeLayout is the timestamp format at the start of every log line.
const logTimeLayout = "2006-01-02 15:04:05"

// LogOptions configures NewLogger.
type LogOptions struct {
	// Path is the append-only log file. Empty disables the file.
	Path string

	// Echo, if set, receives a copy of every line (usually os.Stdout).
	Echo io.Writer

	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
}

// Logger wraps slog.Logger with the launcher's line-oriented log file.
//
// Every record becomes one line:
//
//	[2006-01-02 15:04:05] INFO message key=value
//
// Write failures never reach the caller; they are counted and can be read
// back with WriteFailures so the run can report them once.
type Logger struct {
	*slog.Logger
	handler *lineHandler
}

// NewLogger creates a Logger appending to opts.Path.
func NewLogger(opts LogOptions) *Logger {
	h := &lineHandler{
		shared: &lineSink{
			path: opts.Path,
			echo: opts.Echo,
			now:  time.Now,
		},
		level: parseLevel(opts.Level),
	}
	return &Logger{Logger: slog.New(h), handler: h}
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return NewLogger(LogOptions{})
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:  l.Logger.With(args...),
		handler: l.handler,
	}
}

// WriteFailures returns how many lines could not be written to the log file.
func (l *Logger) WriteFailures() int64 {
	return l.handler.shared.failures.Load()
}

// LineWriter returns a writer that logs each complete line written to it at
// the given level. Close flushes a trailing partial line.
func (l *Logger) LineWriter(level slog.Level, args ...any) io.WriteCloser {
	return &lineWriter{logger: l.Logger.With(args...), level: level}
}

// parseLevel converts a string log level to slog.Level.
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// lineSink is the state shared by a handler and all handlers derived from it.
type lineSink struct {
	mu       sync.Mutex
	path     string
	echo     io.Writer
	now      func() time.Time
	failures atomic.Int64
}

func (s *lineSink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := appendFile(s.path, line); err != nil {
			s.failures.Add(1)
		}
	}
	if s.echo != nil {
		_, _ = s.echo.Write(line)
	}
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// lineHandler is a slog.Handler producing "[ts] LEVEL msg k=v" lines.
type lineHandler struct {
	shared *lineSink
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(h.shared.now().Format(logTimeLayout))
	buf.WriteString("] ")
	buf.WriteString(r.Level.String())
	buf.WriteByte(' ')
	buf.WriteString(oneLine(r.Message))

	for _, a := range h.attrs {
		writeAttr(&buf, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.groups, a)
		return true
	})
	buf.WriteByte('\n')

	h.shared.write(buf.Bytes())
	return nil
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func writeAttr(buf *bytes.Buffer, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := append(append([]string{}, groups...), a.Key)
		for _, ga := range a.Value.Group() {
			writeAttr(buf, sub, ga)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	val := oneLine(a.Value.String())
	if val == "" || strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(val)
}

// oneLine keeps a record on a single line.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

type lineWriter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	level   slog.Level
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.pending[:i]), "\r")
		w.logger.Log(context.Background(), w.level, line)
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) > 0 {
		w.logger.Log(context.Background(), w.level, string(w.pending))
		w.pending = nil
	}
	return nil
}
