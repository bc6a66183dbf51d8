package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/report"
	"github.com/nvandessel/selectorate/internal/store"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "selectorate version "+version) {
		t.Errorf("version output = %q", out)
	}

	out, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json error = %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestRunCmdText(t *testing.T) {
	out, err := execute(t, "run", "--generations", "5", "--voters", "20", "--every", "1")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	for _, want := range []string{"coalition", "Final winner policy:", "Final coalition sizes:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCmdJSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "--records", "--generations", "4", "--seed", "42")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var doc report.RunDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(doc.Records) != 4 || doc.Summary.Seed != 42 {
		t.Errorf("records = %d, seed = %d", len(doc.Records), doc.Summary.Seed)
	}
	if doc.Config.NumGenerations != 4 {
		t.Errorf("config.NumGenerations = %d, want 4", doc.Config.NumGenerations)
	}
}

func TestRunCmdExports(t *testing.T) {
	dir := t.TempDir()
	csvDir := filepath.Join(dir, "csv")
	dbPath := filepath.Join(dir, "results.db")

	_, err := execute(t, "run", "--generations", "3", "--voters", "10",
		"--csv-dir", csvDir, "--votes", "--sqlite", dbPath)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	for _, name := range []string{report.SummaryFile, report.TrajectoryFile, report.VotesFile} {
		if _, err := os.Stat(filepath.Join(csvDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	rs, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer rs.Close()
	runs, err := rs.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 || !runs[0].Finished || runs[0].Summary.Generations != 3 {
		t.Errorf("Runs() = %+v", runs)
	}
}

func TestRunCmdInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"risk share", []string{"run", "--risk-share", "2"}},
		{"position mode", []string{"run", "--position-mode", "sideways"}},
		{"log level", []string{"run", "--log-level", "verbose"}},
		{"replicate seed step", []string{"replicate", "--runs", "2", "--seed-step", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, models.ErrInvalidConfiguration) {
				t.Errorf("error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestRunCmdConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	yaml := "num_generations: 3\nnum_candidates: 2\nvoters:\n  risk_seeking_share: 0.9\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Flags win over the file.
	out, err := execute(t, "run", "--config", path, "--candidates", "3", "--json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var doc report.RunDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.Summary.Generations != 3 {
		t.Errorf("generations = %d, want 3", doc.Summary.Generations)
	}
	if len(doc.Final) != 3 {
		t.Errorf("final pool = %d, want 3", len(doc.Final))
	}
	if doc.Config.Voters.RiskSeekingShare != 0.9 {
		t.Errorf("risk share = %g, want 0.9", doc.Config.Voters.RiskSeekingShare)
	}
}

func TestReplicateCmd(t *testing.T) {
	out, err := execute(t, "replicate", "--runs", "3", "--generations", "4", "--voters", "20", "--seed-step", "10", "--json")
	if err != nil {
		t.Fatalf("replicate error = %v", err)
	}
	var doc report.ReplicateDocument
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(doc.Runs) != 3 || doc.Aggregate.Runs != 3 {
		t.Fatalf("runs = %d, aggregate runs = %d", len(doc.Runs), doc.Aggregate.Runs)
	}
	for i, s := range doc.Runs {
		if want := doc.Config.RandomSeed + int64(i)*10; s.Seed != want {
			t.Errorf("runs[%d].Seed = %d, want %d", i, s.Seed, want)
		}
	}

	out, err = execute(t, "replicate", "--runs", "2", "--generations", "2")
	if err != nil {
		t.Fatalf("replicate error = %v", err)
	}
	if !strings.Contains(out, "2 runs: mean final alpha") {
		t.Errorf("text output = %q", out)
	}
}

func TestConfigCmd(t *testing.T) {
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "num_voters: 100") {
		t.Errorf("config show output missing num_voters:\n%s", out)
	}

	out, err = execute(t, "config", "show", "--json", "--voters", "7")
	if err != nil {
		t.Fatalf("config show --json error = %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg["num_voters"] != 7.0 {
		t.Errorf("num_voters = %v, want 7", cfg["num_voters"])
	}

	if _, err := execute(t, "config", "validate"); err != nil {
		t.Errorf("config validate error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("num_voters: 0\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := execute(t, "config", "validate", "--config", path); !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Errorf("config validate error = %v, want ErrInvalidConfiguration", err)
	}
}
