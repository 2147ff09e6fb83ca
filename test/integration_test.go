// ABOUTME: Integration tests for fitlog CLI.
// ABOUTME: Builds the binary and runs a full day of logging against a temp data dir.
package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFullWorkflow(t *testing.T) {
	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(t.TempDir(), "fitlog")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/fitlog")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir}, args...)
		cmd := exec.Command(binary, fullArgs...)
		cmd.Env = append(os.Environ(),
			"XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"),
			"NO_COLOR=1",
		)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	output, err := run("meal", "add", "oats", "350", "--protein", "12", "--meal", "breakfast")
	if err != nil {
		t.Fatalf("Failed to add meal: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Logged oats") {
		t.Errorf("Expected 'Logged oats' in output, got: %s", output)
	}

	today := time.Now().Format("2006-01-02")
	if _, err := os.Stat(filepath.Join(dataDir, "nutrition", today+".json")); err != nil {
		t.Errorf("Expected today's nutrition file: %v", err)
	}

	output, err = run("workout", "start", "lift")
	if err != nil {
		t.Fatalf("Failed to start workout: %v\n%s", err, output)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "workouts", "active_workout.json")); err != nil {
		t.Errorf("Expected active workout file between runs: %v", err)
	}

	output, err = run("workout", "set", "squat", "5", "100")
	if err != nil {
		t.Fatalf("Failed to add set: %v\n%s", err, output)
	}

	output, err = run("workout", "finish")
	if err != nil {
		t.Fatalf("Failed to finish workout: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Finished lift") {
		t.Errorf("Expected 'Finished lift' in output, got: %s", output)
	}

	output, err = run("workout", "add", "run", "--duration", "45")
	if err != nil {
		t.Fatalf("Failed to add workout: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Added run workout") {
		t.Errorf("Expected 'Added run workout' in output, got: %s", output)
	}

	output, err = run("workout", "history")
	if err != nil {
		t.Fatalf("Failed to list history: %v\n%s", err, output)
	}
	if !strings.Contains(output, "lift") || !strings.Contains(output, "run") {
		t.Errorf("Expected both sessions in history, got: %s", output)
	}

	output, err = run("recovery", "add", "--sleep", "7.5", "--soreness", "2")
	if err != nil {
		t.Fatalf("Failed to log recovery: %v\n%s", err, output)
	}

	output, err = run("today")
	if err != nil {
		t.Fatalf("Failed to show today: %v\n%s", err, output)
	}
	for _, want := range []string{"oats", "lift", "run", "sleep 7.5h"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in today output, got: %s", want, output)
		}
	}
}

func TestCorruptDayIsLeftAlone(t *testing.T) {
	projectRoot, _ := filepath.Abs("..")
	binary := filepath.Join(t.TempDir(), "fitlog")

	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/fitlog")
	buildCmd.Dir = projectRoot
	if output, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build: %v\n%s", err, output)
	}

	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "data")
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	corrupt := filepath.Join(dataDir, "nutrition", yesterday+".json")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0750); err != nil {
		t.Fatal(err)
	}
	garbage := []byte(`{"date": "` + yesterday + `", "entries": [`)
	if err := os.WriteFile(corrupt, garbage, 0600); err != nil {
		t.Fatal(err)
	}

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--data-dir", dataDir}, args...)
		cmd := exec.Command(binary, fullArgs...)
		cmd.Env = append(os.Environ(),
			"XDG_CONFIG_HOME="+filepath.Join(tmpDir, "config"),
			"NO_COLOR=1",
		)
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	output, err := run("meal", "add", "apple", "95")
	if err != nil {
		t.Fatalf("Failed to add meal next to a corrupt day: %v\n%s", err, output)
	}

	after, err := os.ReadFile(corrupt)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(garbage) {
		t.Errorf("Corrupt day file was rewritten: %s", after)
	}

	output, err = run("diag")
	if err != nil {
		t.Fatalf("Failed to run diag: %v\n%s", err, output)
	}
	if !strings.Contains(output, "unreadable: nutrition/"+yesterday+".json") {
		t.Errorf("Expected diag to list the corrupt day, got: %s", output)
	}
}
