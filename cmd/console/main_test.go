package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"letc/pkg/compiler"
)

func TestSessionKeepsVariables(t *testing.T) {
	s := &session{opts: compiler.DefaultOptions()}

	if _, err := s.add("let x: i32 = 6;"); err != nil {
		t.Fatal(err)
	}
	ir, err := s.add("x * 7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ir, "mul i32 %0, 7") {
		t.Errorf("expected x to be loaded and multiplied\n%s", ir)
	}
	if len(s.nodes) != 2 {
		t.Errorf("expected 2 accepted instructions, got %d", len(s.nodes))
	}
}

func TestSessionRejectsBadInput(t *testing.T) {
	s := &session{opts: compiler.DefaultOptions()}
	if _, err := s.add("let x: i32 = 1;"); err != nil {
		t.Fatal(err)
	}

	_, err := s.add("1 +")
	var pe *compiler.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected a parse error, got %v", err)
	}

	if _, err := s.add("let x: i32 = 2;"); err == nil {
		t.Error("redeclaration should fail")
	}
	if len(s.nodes) != 1 {
		t.Errorf("failed input must not change the session, got %d instructions", len(s.nodes))
	}
}

func TestSessionEmptyInput(t *testing.T) {
	s := &session{}
	ir, err := s.add("  // just a comment")
	if err != nil || ir != "" {
		t.Errorf("expected nothing for empty input, got %q, %v", ir, err)
	}
}

func TestSessionCommands(t *testing.T) {
	s := &session{opts: compiler.DefaultOptions()}
	if _, err := s.add("let a: i32 = 1; a + 1"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if s.command(":ast", &out) {
		t.Error(":ast should not quit")
	}
	if !strings.Contains(out.String(), "1  Assignment(a, 1)") || !strings.Contains(out.String(), "2  Addition(a, 1)") {
		t.Errorf("unexpected :ast output:\n%s", out.String())
	}

	out.Reset()
	s.command(":reset", &out)
	if len(s.nodes) != 0 {
		t.Error(":reset should clear the session")
	}
	s.command(":ast", &out)
	if !strings.Contains(out.String(), "(empty)") {
		t.Errorf("expected empty session, got:\n%s", out.String())
	}

	out.Reset()
	s.command(":help", &out)
	if !strings.Contains(out.String(), ":quit") {
		t.Errorf("help should list commands, got:\n%s", out.String())
	}

	out.Reset()
	s.command(":bogus", &out)
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("expected unknown command message, got:\n%s", out.String())
	}

	if !s.command(":quit", &out) || !s.command(" :Q ", &out) {
		t.Error(":quit and :q should quit")
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"while i < 3 {", true},
		{"let x: i32 = ", true},
		{"(1 + 2", true},
		{"1 + 2", false},
		{"1 + )", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := incomplete(tt.src); got != tt.want {
			t.Errorf("incomplete(%q): expected %v, got %v", tt.src, tt.want, got)
		}
	}
}

func TestHistoryPath(t *testing.T) {
	path, ok := historyPath(func() (string, error) { return "/home/ada", nil })
	if !ok || path != filepath.Join("/home/ada", historyFile) {
		t.Errorf("expected history in the home directory, got %q (ok=%v)", path, ok)
	}

	if path, ok := historyPath(func() (string, error) { return "", errors.New("$HOME is not defined") }); ok {
		t.Errorf("history should be disabled without a home directory, got %q", path)
	}
	if _, ok := historyPath(func() (string, error) { return "", nil }); ok {
		t.Error("an empty home directory should disable history")
	}
}
