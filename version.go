package pylaunch

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinVenvPython is the oldest interpreter with the venv module.
var MinVenvPython = Version{Major: 3, Minor: 3, Patch: -1}

// leadingVersion matches up to three dotted numbers at the start of a
// version string. Suffixes such as "rc1" or "+" are ignored.
var leadingVersion = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// Version is a Python version. Minor and Patch are -1 when the string did
// not carry them, so "3.10" is {3, 10, -1}.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion reads "X", "X.Y" or "X.Y.Z" from the start of s.
func ParseVersion(s string) (Version, error) {
	m := leadingVersion.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	parts := [3]int{-1, -1, -1}
	for i, field := range m[1:] {
		if field == "" {
			break
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// ParsePythonVersion parses the output of "python --version", e.g.
// "Python 3.12.1".
func ParsePythonVersion(out string) (Version, error) {
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != "Python" {
		return Version{}, fmt.Errorf("invalid version string: %q", out)
	}
	return ParseVersion(fields[1])
}

// Compare orders versions by major, minor, then patch. A missing component
// sorts before any present one.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}

func (v Version) String() string {
	s := strconv.Itoa(v.Major)
	for _, n := range []int{v.Minor, v.Patch} {
		if n < 0 {
			break
		}
		s += "." + strconv.Itoa(n)
	}
	return s
}
