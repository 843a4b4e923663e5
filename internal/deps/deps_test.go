package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeScript(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestVersionReturnsFirstLine(t *testing.T) {
	bin := writeScript(t, t.TempDir(), "ffmpeg", "echo\necho 'ffmpeg version 7.1 Copyright (c)'\necho 'built with gcc'\n")
	got, err := Version(context.Background(), bin)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "ffmpeg version 7.1 Copyright (c)" {
		t.Fatalf("unexpected version line %q", got)
	}
}

func TestVersionReportsFailure(t *testing.T) {
	bin := writeScript(t, t.TempDir(), "broken", "exit 3\n")
	if _, err := Version(context.Background(), bin); err == nil {
		t.Fatal("expected error for failing binary")
	}
}
