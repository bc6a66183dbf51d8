// Package pathutil normalizes the output paths named in a configuration.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand replaces ${VAR} patterns with environment values and a leading
// "~/" with the user's home directory. Other paths are returned unchanged.
func Expand(path string) string {
	if strings.Contains(path, "${") {
		path = os.Expand(path, os.Getenv)
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// Redact reduces a full path to .../<parent>/<basename> for log lines.
// For example, "/home/user/runs/results.db" becomes ".../runs/results.db".
func Redact(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	base := filepath.Base(cleaned)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}
