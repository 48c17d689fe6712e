package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRootCommand_Version(t *testing.T) {
	version = "1.2.3"

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "1.2.3") {
		t.Errorf("--version output should contain version: %q", out)
	}
	if !strings.Contains(out, "autocommit") {
		t.Errorf("--version output should contain 'autocommit': %q", out)
	}
}

func TestRootCommand_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	for _, expected := range []string{"autocommit", "Usage:", "--json", "--auto-sync", "Core Commands:"} {
		if !strings.Contains(out, expected) {
			t.Errorf("--help output should contain %q: %q", expected, out)
		}
	}
}

func TestRootCommand_JSONFlag_NoSubcommand(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--json"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected error when running with --json but no subcommand")
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output should be valid JSON: %v\nOutput: %s", err, buf.String())
	}
	if _, ok := result["error"]; !ok {
		t.Error("JSON output should have 'error' field")
	}
	if code, ok := result["code"].(float64); !ok || code != 1 {
		t.Errorf("code = %v, want 1", result["code"])
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	tests := []struct {
		name  string
		group string
	}{
		{"commit", "core"},
		{"draft", "core"},
		{"scan", "query"},
		{"status", "query"},
		{"unpushed", "query"},
		{"serve", "agent"},
		{"config", "admin"},
		{"prompts", "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.name})
			if err != nil || sub.Name() != tt.name {
				t.Fatalf("subcommand %q not registered", tt.name)
			}
			if sub.GroupID != tt.group {
				t.Errorf("GroupID = %q, want %q", sub.GroupID, tt.group)
			}
			if sub.RunE == nil {
				t.Error("RunE is nil")
			}
		})
	}
}

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		name                  string
		version, commit, date string
		want                  string
	}{
		{"dev build", "dev", "none", "unknown", "dev"},
		{"release", "1.0.0", "abcdef1234567", "2026-01-02", "1.0.0 (abcdef1, 2026-01-02)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldV, oldC, oldD := version, commit, date
			t.Cleanup(func() { version, commit, date = oldV, oldC, oldD })
			version, commit, date = tt.version, tt.commit, tt.date

			if got := buildVersion(); got != tt.want {
				t.Errorf("buildVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommitCommand_Flags(t *testing.T) {
	cmd := newCommitCmd()

	tests := []struct {
		name string
		want string
	}{
		{name: "dry-run", want: "false"},
		{name: "run-timeout", want: "10m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag --%s not registered", tt.name)
			}
			if flag.DefValue != tt.want {
				t.Errorf("--%s default = %q, want %q", tt.name, flag.DefValue, tt.want)
			}
		})
	}
}
