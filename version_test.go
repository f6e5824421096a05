package pylaunch

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"3.10.5", Version{3, 10, 5}, false},
		{"3.10", Version{3, 10, -1}, false},
		{"3", Version{3, -1, -1}, false},
		{"3.13.0rc1", Version{3, 13, 0}, false},
		{"", Version{}, true},
		{"abc", Version{}, true},
		{"-1.2.3", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePythonVersion(t *testing.T) {
	v, err := ParsePythonVersion("Python 3.12.1")
	if err != nil {
		t.Fatalf("ParsePythonVersion: %v", err)
	}
	if v.String() != "3.12.1" {
		t.Errorf("expected 3.12.1, got %s", v)
	}

	for _, bad := range []string{"3.12.1", "Python", "Pypy 3.9", "Python 3.12 extra"} {
		if _, err := ParsePythonVersion(bad); err == nil {
			t.Errorf("ParsePythonVersion(%q) expected error", bad)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{3, 10, 5}, Version{3, 10, 5}, 0},
		{Version{3, 9, 0}, Version{3, 10, 0}, -1},
		{Version{4, 0, 0}, Version{3, 99, 99}, 1},
		{Version{3, 10, -1}, Version{3, 10, 0}, -1},
		{Version{3, 11, 2}, Version{3, 11, 1}, 1},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	for _, tt := range []struct {
		v    Version
		want string
	}{
		{Version{3, 10, 5}, "3.10.5"},
		{Version{3, 10, -1}, "3.10"},
		{Version{3, -1, -1}, "3"},
	} {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMinVenvPython(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want bool
	}{
		{"2.7.18", false},
		{"3.2.6", false},
		{"3.3.0", true},
		{"3.12.1", true},
		{"4", true},
	} {
		v, err := ParseVersion(tt.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tt.in, err)
		}
		if got := v.Compare(MinVenvPython) >= 0; got != tt.want {
			t.Errorf("%s supports venv = %v, want %v", tt.in, got, tt.want)
		}
	}
}
