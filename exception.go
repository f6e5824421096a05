package pylaunch

import (
	"regexp"
	"strings"
	"sync"
)

// tracebackHeader starts every traceback Python prints.
const tracebackHeader = "Traceback (most recent call last):"

// exceptionLine matches the line that ends a traceback, e.g.
// "ValueError: invalid value" or "KeyboardInterrupt".
var exceptionLine = regexp.MustCompile(`^([A-Za-z_][\w.]*)(?:: (.*))?$`)

// PythonException represents an exception that ended a Python process.
// It captures the exception type, message, and full traceback for debugging.
type PythonException struct {
	// Exception is the exception class name (e.g., "ValueError", "KeyError").
	Exception string `msgpack:"exception"`

	// Message is the exception message/description.
	Message string `msgpack:"message"`

	// Traceback is the full Python traceback string.
	Traceback string `msgpack:"traceback"`

	// Cause is the exception this one was raised from or while handling.
	Cause *PythonException `msgpack:"cause,omitempty"`
}

// ToString formats the exception as a readable string with type, message,
// and traceback, followed by its causes.
func (e *PythonException) ToString() string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteString("\n")
	b.WriteString(e.Traceback)
	for c := e.Cause; c != nil; c = c.Cause {
		b.WriteString("\nCaused by: ")
		b.WriteString(c.Error())
		b.WriteString("\n")
		b.WriteString(c.Traceback)
	}
	return b.String()
}

// Error returns "Type: message", or just the type when there is no message.
func (e *PythonException) Error() string {
	if e.Message == "" {
		return e.Exception
	}
	return e.Exception + ": " + e.Message
}

// ParseTraceback returns the last exception reported in Python stderr
// output, or nil if there is none. Chained tracebacks ("The above exception
// was the direct cause..." and "During handling of the above exception...")
// become Cause links.
func ParseTraceback(output []byte) *PythonException {
	var (
		last    *PythonException
		block   []string
		inBlock bool
		chained bool
	)

	text := strings.ReplaceAll(string(output), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		switch {
		case line == tracebackHeader:
			inBlock = true
			block = []string{line}
		case inBlock:
			block = append(block, line)
			// frames and source lines are indented
			if line == "" || line[0] == ' ' || line[0] == '\t' {
				continue
			}
			inBlock = false
			m := exceptionLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			exc := &PythonException{
				Exception: m[1],
				Message:   m[2],
				Traceback: strings.Join(block, "\n"),
			}
			if chained {
				exc.Cause = last
			}
			last = exc
			chained = false
		case strings.HasPrefix(line, "The above exception was the direct cause"),
			strings.HasPrefix(line, "During handling of the above exception"):
			chained = last != nil
		}
	}
	return last
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = append(w.buf[:0], w.buf[over:]...)
	}
	return len(p), nil
}

// Bytes returns a copy of the retained bytes.
func (w *tailWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf...)
}

func (w *tailWriter) String() string {
	return string(w.Bytes())
}
