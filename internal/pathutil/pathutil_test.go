package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpand(t *testing.T) {
	t.Setenv("SELECTORATE_TEST_DIR", "/tmp/exp")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"plain", "out/results.db", "out/results.db"},
		{"env var", "${SELECTORATE_TEST_DIR}/csv", "/tmp/exp/csv"},
		{"home", "~/runs", filepath.Join(home, "runs")},
		{"bare home", "~", home},
		{"tilde inside", "a/~/b", "a/~/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.path); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"results.db", "results.db"},
		{"/results.db", "results.db"},
		{"/home/user/runs/results.db", ".../runs/results.db"},
		{"out/csv/", ".../out/csv"},
	}
	for _, tt := range tests {
		if got := Redact(tt.path); got != tt.want {
			t.Errorf("Redact(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
