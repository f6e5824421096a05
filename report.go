package pylaunch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// reportDir holds launcher state inside the project root.
const reportDir = ".pylaunch"

// RunReport records the outcome of the last launcher run.
type RunReport struct {
	RunID      string           `msgpack:"run_id"`
	Binary     string           `msgpack:"binary"`
	Mode       string           `msgpack:"mode"`
	Root       string           `msgpack:"root"`
	Entrypoint string           `msgpack:"entrypoint,omitempty"`
	ExitCode   int              `msgpack:"exit_code"`
	Error      string           `msgpack:"error,omitempty"`
	Warnings   []Warning        `msgpack:"warnings,omitempty"`
	Exception  *PythonException `msgpack:"exception,omitempty"`
	Started    time.Time        `msgpack:"started"`
	Finished   time.Time        `msgpack:"finished"`
}

// NewRunReport starts a report for a run of binary under root.
func NewRunReport(binary, root string, mode LaunchMode) *RunReport {
	return &RunReport{
		RunID:   uuid.NewString(),
		Binary:  binary,
		Mode:    mode.String(),
		Root:    root,
		Started: time.Now(),
	}
}

// Finish fills in the outcome.
func (r *RunReport) Finish(mode LaunchMode, entry string, err error, diag *Diagnostics) {
	r.Mode = mode.String()
	r.Entrypoint = entry
	r.ExitCode = ExitCode(err)
	if err != nil {
		r.Error = err.Error()
	}
	if diag != nil {
		r.Warnings = diag.Items()
	}
	r.Finished = time.Now()
}

// Print writes a human-readable summary of the report.
func (r *RunReport) Print(w io.Writer) {
	fmt.Fprintf(w, "run:        %s (%s)\n", r.RunID, r.Binary)
	fmt.Fprintf(w, "mode:       %s\n", r.Mode)
	fmt.Fprintf(w, "root:       %s\n", r.Root)
	if r.Entrypoint != "" {
		fmt.Fprintf(w, "entrypoint: %s\n", r.Entrypoint)
	}
	fmt.Fprintf(w, "exit code:  %d\n", r.ExitCode)
	if r.Error != "" {
		fmt.Fprintf(w, "error:      %s\n", r.Error)
	}
	fmt.Fprintf(w, "started:    %s\n", r.Started.Format(logTimeLayout))
	fmt.Fprintf(w, "duration:   %s\n", r.Finished.Sub(r.Started).Round(time.Millisecond))
	if r.Exception != nil {
		fmt.Fprintf(w, "exception:  %s\n", r.Exception.Error())
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning:    %s\n", warn)
	}
}

// ReportStore persists the last RunReport of a project.
type ReportStore struct {
	Path       string
	Serializer Serializer
}

// NewReportStore returns the msgpack-backed store for the project at root.
func NewReportStore(root string) *ReportStore {
	return &ReportStore{
		Path:       filepath.Join(root, reportDir, "last-run.msgpack"),
		Serializer: MsgpackSerializer{},
	}
}

// Save writes the report, replacing the previous one.
func (s *ReportStore) Save(r *RunReport) error {
	data, err := s.Serializer.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

// Load reads the last saved report.
func (s *ReportStore) Load() (*RunReport, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r RunReport
	if err := s.Serializer.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding run report: %w", err)
	}
	return &r, nil
}
