package pylaunch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Strategy names how an entrypoint was found.
type Strategy string

const (
	StrategyConfig    Strategy = "config"
	StrategyCandidate Strategy = "candidate"
	StrategyHeuristic Strategy = "heuristic"
)

// DefaultCandidates are the conventional entry file names, most preferred first.
var DefaultCandidates = []string{"main.py", "app.py", "run.py", "start.py", "bootstrap.py"}

// mainMarkers are the prefixes of a script that looks like a main program.
var mainMarkers = [][]byte{
	[]byte("__name__ == '__main__'"),
	[]byte(`"__main__"`),
	[]byte("def main("),
}

// Resolution is a resolved entrypoint.
type Resolution struct {
	// Path is the absolute path of the entry file.
	Path string

	// Strategy is the strategy that produced Path.
	Strategy Strategy
}

// ResolveOptions tunes Resolve. Zero values select the defaults.
type ResolveOptions struct {
	// Candidates are checked directly under the root after the config list.
	Candidates []string

	// Suffix selects the files considered by the scan. Default ".py".
	Suffix string

	// Limit is how many leading bytes of each file the scan reads. Default 2048.
	Limit int

	// Skip names directories the scan never enters, in addition to hidden
	// directories and node_modules.
	Skip []string
}

func (o ResolveOptions) withDefaults() ResolveOptions {
	if len(o.Candidates) == 0 {
		o.Candidates = DefaultCandidates
	}
	if o.Suffix == "" {
		o.Suffix = ".py"
	}
	if o.Limit <= 0 {
		o.Limit = 2048
	}
	return o
}

// ResolveOptionsFrom builds the resolver options a launcher uses for its settings.
func ResolveOptionsFrom(s *Settings) ResolveOptions {
	return ResolveOptions{
		Candidates: s.Candidates,
		Suffix:     s.Scan.Suffix,
		Limit:      s.Scan.Limit,
		Skip:       []string{s.EnvDir, s.Packaging.DistDir, s.Packaging.BuildDir},
	}
}

// Resolve returns the project's entrypoint under root.
//
// Strategies, first match wins:
//  1. cfg.Entrypoints in listed order, if the path is a regular file
//  2. opts.Candidates directly under root
//  3. a scan of root in lexicographic order for the first file ending in
//     opts.Suffix whose first opts.Limit bytes contain a main-program marker
//
// Returns ErrNoEntrypoint when all three fail.
func Resolve(root string, cfg LauncherConfig, opts ResolveOptions) (Resolution, error) {
	opts = opts.withDefaults()

	root, err := filepath.Abs(root)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolving root: %w", err)
	}

	for _, candidate := range cfg.Entrypoints {
		if candidate == "" {
			continue
		}
		p := candidate
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		if isRegularFile(p) {
			return Resolution{Path: p, Strategy: StrategyConfig}, nil
		}
	}

	for _, name := range opts.Candidates {
		p := filepath.Join(root, name)
		if isRegularFile(p) {
			return Resolution{Path: p, Strategy: StrategyCandidate}, nil
		}
	}

	found, err := scanForMain(root, opts)
	if err != nil {
		return Resolution{}, fmt.Errorf("scanning %s: %w", root, err)
	}
	if found != "" {
		return Resolution{Path: found, Strategy: StrategyHeuristic}, nil
	}

	return Resolution{}, fmt.Errorf("%w in %s", ErrNoEntrypoint, root)
}

// scanForMain walks root and returns the first script that looks like a main
// program, or "" if there is none. filepath.WalkDir visits entries in lexical
// order, which makes the result reproducible.
func scanForMain(root string, opts ResolveOptions) (string, error) {
	skip := map[string]bool{"node_modules": true}
	for _, name := range opts.Skip {
		if name != "" {
			skip[filepath.Base(name)] = true
		}
	}

	buf := make([]byte, opts.Limit)
	found := ""

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// unreadable subtree
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || skip[d.Name()]) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), opts.Suffix) {
			return nil
		}
		// symlinked scripts count when they point at a regular file
		if !d.Type().IsRegular() && (d.Type()&fs.ModeSymlink == 0 || !isRegularFile(path)) {
			return nil
		}
		if headHasMarker(path, buf) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return "", err
	}
	return found, nil
}

// headHasMarker reports whether the first len(buf) bytes of the file at path
// contain a main-program marker. Unreadable files never match.
func headHasMarker(path string, buf []byte) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	head := buf[:n]
	for _, marker := range mainMarkers {
		if bytes.Contains(head, marker) {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
