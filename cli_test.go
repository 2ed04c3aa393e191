package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedDB(t *testing.T) string {
	t.Helper()
	clearConfigEnv(t)
	t.Setenv("TIMEZONE", "UTC")
	path := filepath.Join(t.TempDir(), "largo.db")

	store, err := NewStore("", path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	due := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	if _, err := store.AddTask(ctx, 1, "buy milk", &due); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := store.AddNote(ctx, 1, "dark mode", NoteTypeIdea); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	return path
}

func TestRootCmdSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"serve", "migrate", "tasks", "ideas", "due", "done", "mcp", "version"} {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if cmd.PersistentFlags().Lookup("db") == nil {
		t.Error("--db flag not found")
	}
}

func TestCLIVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "largo dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestCLIMigrate(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "fresh.db")

	out, err := runCLI(t, "--db", path, "migrate")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, "schema is up to date") {
		t.Errorf("migrate output = %q", out)
	}
}

func TestCLITasksAndDone(t *testing.T) {
	path := seedDB(t)

	out, err := runCLI(t, "--db", path, "tasks", "--user", "1")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	if !strings.Contains(out, "1. buy milk (к 2026-10-17 08:00)") {
		t.Errorf("tasks output = %q", out)
	}

	out, err = runCLI(t, "--db", path, "due", "--at", "2026-10-17T09:00:00Z")
	if err != nil {
		t.Fatalf("due error = %v", err)
	}
	if !strings.Contains(out, "[user 1] buy milk") {
		t.Errorf("due output = %q", out)
	}

	if _, err := runCLI(t, "--db", path, "done", "1"); err != nil {
		t.Fatalf("done error = %v", err)
	}

	out, err = runCLI(t, "--db", path, "tasks", "--user", "1")
	if err != nil {
		t.Fatalf("tasks error = %v", err)
	}
	if !strings.Contains(out, "нет активных задач") {
		t.Errorf("tasks after done = %q", out)
	}
}

func TestCLIIdeas(t *testing.T) {
	path := seedDB(t)

	out, err := runCLI(t, "--db", path, "ideas", "--user", "1")
	if err != nil {
		t.Fatalf("ideas error = %v", err)
	}
	if !strings.Contains(out, "dark mode") {
		t.Errorf("ideas output = %q", out)
	}
}

func TestCLIValidation(t *testing.T) {
	path := seedDB(t)

	tests := [][]string{
		{"--db", path, "tasks"},
		{"--db", path, "ideas", "--user", "1", "--type", "todo"},
		{"--db", path, "due", "--at", "noon"},
		{"--db", path, "done", "zero"},
		{"--db", path, "done"},
	}
	for _, args := range tests {
		if _, err := runCLI(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
