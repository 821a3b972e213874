package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		configFile = ""
	})
	err := Execute()
	return out.String(), err
}

func TestVariantsCommandListsAllPhrases(t *testing.T) {
	chdir(t, t.TempDir())

	out, err := execute(t, "variants")
	if err != nil {
		t.Fatalf("variants: %v", err)
	}
	for _, want := range []string{
		"Starting on GCP!", "Running on GCP",
		"Initializing on Cloud!", "Executing on Cloud",
		"Launching in Data Center!", "Processing in Data Center",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFlagIsApplied(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	p := filepath.Join(dir, "custom.yaml")
	logPath := filepath.Join(dir, "cpuburn.log")
	body := "log:\n  level: warn\n  file: " + logPath + "\nstop_grace: 1500ms\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "--config", p, "variants"); err != nil {
		t.Fatalf("variants: %v", err)
	}
	if cfg.StopGrace != 1500*time.Millisecond || cfg.Log.Level != "warn" {
		t.Fatalf("config not applied: %+v", cfg)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Fatalf("log file not opened: %v", err)
	}
}

func TestWorkerCommandRejectsUnknownVariant(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := execute(t, "worker", "--name", "Task 3", "--variant", "mainframe")
	if err == nil || !strings.Contains(err.Error(), "unknown worker variant") {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
}

func TestRootRejectsArguments(t *testing.T) {
	chdir(t, t.TempDir())

	if _, err := execute(t, "extra"); err == nil {
		t.Fatalf("expected error for positional arguments")
	}
}
