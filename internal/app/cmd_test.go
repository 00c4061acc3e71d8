package app

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"empty defaults to serve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"alert", []string{"alert"}, CommandAlert},
		{"help", []string{"help"}, CommandHelp},
		{"-h", []string{"-h"}, CommandHelp},
		{"--help", []string{"--help"}, CommandHelp},
		{"unknown defaults to serve", []string{"unknown"}, CommandServe},
		{"extra args ignored", []string{"alert", "-phone", "+1"}, CommandAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandMigrate, "migrate"},
		{CommandHealthcheck, "healthcheck"},
		{CommandAlert, "alert"},
		{CommandHelp, "help"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

// 一覧にはすべてのサブコマンドが載る
func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)

	out := buf.String()
	for _, cmd := range []Command{CommandServe, CommandMigrate, CommandHealthcheck, CommandAlert, CommandHelp} {
		if !strings.Contains(out, "  "+string(cmd)+" ") {
			t.Errorf("usage should list %q:\n%s", cmd, out)
		}
	}
	if !strings.Contains(out, "day_logs") {
		t.Errorf("usage should mention the day_logs migration:\n%s", out)
	}
}

func TestRun_HelpPrintsUsage(t *testing.T) {
	var buf bytes.Buffer
	if err := Run(&buf, []string{"help"}); err != nil {
		t.Fatalf("Run(help) error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "usage: soslog") {
		t.Errorf("output = %q", buf.String())
	}
}
