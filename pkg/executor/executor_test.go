package executor

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestExecute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	exec := New()
	ctx := context.Background()

	out, err := exec.Execute(ctx, "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Execute() = %q, want %q", out, "hello")
	}

	_, err = exec.Execute(ctx, "sh", "-c", "echo broken input >&2; exit 3")
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("Execute() error = %v, want CommandError", err)
	}
	if ce.Stderr != "broken input" || ce.Name != "sh" {
		t.Errorf("CommandError = %+v", ce)
	}
}

func TestExecuteInDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()
	out, err := New().ExecuteInDir(context.Background(), dir, "sh", "-c", "pwd")
	if err != nil {
		t.Fatalf("ExecuteInDir() error = %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), strings.TrimPrefix(dir, "/private")) {
		t.Errorf("ExecuteInDir() ran in %q, want %q", out, dir)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Execute(ctx, "sleep", "5")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestLastLines(t *testing.T) {
	in := "a\nb\nc\nd\n"
	if got := lastLines(in, 2); got != "c\nd" {
		t.Errorf("lastLines() = %q", got)
	}
	if got := lastLines("", 2); got != "" {
		t.Errorf("lastLines(empty) = %q", got)
	}
}
