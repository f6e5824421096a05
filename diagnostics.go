package pylaunch

import (
	"fmt"
	"sync"
)

// Warning is a non-fatal problem met during a run.
type Warning struct {
	// Source names the step that produced the warning (e.g. "requirements").
	Source string `msgpack:"source"`

	// Message describes what went wrong.
	Message string `msgpack:"message"`
}

func (w Warning) String() string {
	return w.Source + ": " + w.Message
}

// Diagnostics collects the warnings of one run so they can be surfaced
// together at the end instead of being dropped where they happen.
// It is safe for concurrent use.
type Diagnostics struct {
	mu    sync.Mutex
	items []Warning
}

// Warn records err under source. A nil err is ignored.
func (d *Diagnostics) Warn(source string, err error) {
	if err == nil {
		return
	}
	d.add(Warning{Source: source, Message: err.Error()})
}

// Warnf records a formatted warning under source.
func (d *Diagnostics) Warnf(source, format string, args ...any) {
	d.add(Warning{Source: source, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) add(w Warning) {
	d.mu.Lock()
	d.items = append(d.items, w)
	d.mu.Unlock()
}

// Items returns a copy of the recorded warnings in the order they were added.
func (d *Diagnostics) Items() []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Warning(nil), d.items...)
}

// Len returns the number of recorded warnings.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Flush logs every warning plus a summary line. Log write failures counted
// by logger are added first so they are part of the summary.
func (d *Diagnostics) Flush(logger *Logger) {
	if n := logger.WriteFailures(); n > 0 {
		d.Warnf("log", "%d log line(s) could not be written", n)
	}
	items := d.Items()
	if len(items) == 0 {
		return
	}
	for _, w := range items {
		logger.Warn("diagnostic", "source", w.Source, "message", w.Message)
	}
	logger.Warn(fmt.Sprintf("run finished with %d warning(s)", len(items)))
}
