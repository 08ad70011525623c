package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Main(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCacheClear(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "cache")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0o644)

	code, stdout, stderr := run(t, "cache", "clear", "--cache-dir", dir)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Removed 2 cached result(s)") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestConfigurationErrorExitsTwo(t *testing.T) {
	t.Chdir(t.TempDir())
	input := filepath.Join(t.TempDir(), "a.wav")
	os.WriteFile(input, []byte("x"), 0o644)

	code, _, stderr := run(t, "-i", input, "--engine", "vosk")
	if code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
	if !strings.HasPrefix(stderr, "ERROR [config]:") || !strings.Contains(stderr, "vosk") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestBadChunkOverlapExitsTwo(t *testing.T) {
	t.Chdir(t.TempDir())
	input := filepath.Join(t.TempDir(), "a.wav")
	os.WriteFile(input, []byte("x"), 0o644)

	code, _, _ := run(t, "transcribe", "-i", input, "--engine", "faster", "--chunk-seconds", "10", "--chunk-overlap-seconds", "10")
	if code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
}

func TestUnknownFlagExitsTwo(t *testing.T) {
	t.Chdir(t.TempDir())
	code, _, stderr := run(t, "transcribe", "--bogus")
	if code != 2 || !strings.Contains(stderr, "ERROR [config]") {
		t.Errorf("exit = %d, stderr = %q", code, stderr)
	}
}

func TestBadConfigFileExitsTwo(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("engine: [oops"), 0o644)

	code, _, _ := run(t, "cache", "clear")
	if code != 2 {
		t.Errorf("exit = %d, want 2", code)
	}
}

func TestTranscribeApply(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(f float64) *float64 { return &f }

	cfg := config.Defaults()
	cmd := TranscribeCMD{
		Engine:       str(config.EngineFaster),
		Model:        str("large-v3"),
		Render:       str(config.RenderRaw),
		APIFormat:    str("srt"),
		ChunkSeconds: num(60),
		NoCache:      true,
		KeepTemp:     true,
	}
	cmd.apply(&cfg)

	if cfg.Engine != config.EngineFaster || cfg.Faster.Model != "large-v3" || cfg.OpenAI.Model != "gpt-4o-transcribe-diarize" {
		t.Errorf("engine/model = %s %s %s", cfg.Engine, cfg.Faster.Model, cfg.OpenAI.Model)
	}
	if cfg.Render.Mode != config.RenderRaw || cfg.Render.APIFormat != "srt" || cfg.Render.Every != 30 {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Chunking.Seconds != 60 || cfg.Chunking.OverlapSeconds != 0 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if !cfg.Cache.Disabled || !cfg.Paths.KeepTemp {
		t.Errorf("cache disabled = %v, keep temp = %v", cfg.Cache.Disabled, cfg.Paths.KeepTemp)
	}
}

func TestErrorLine(t *testing.T) {
	staged := errs.At(errs.StageNormalize, &errs.DecodeError{Input: "a.mp3", Err: errors.New("exit status 1")})
	if got := ErrorLine(staged); got != "ERROR [normalize]: decode a.mp3: exit status 1" {
		t.Errorf("ErrorLine() = %q", got)
	}
	if got := ErrorLine(errors.New("boom")); got != "ERROR: boom" {
		t.Errorf("ErrorLine() = %q", got)
	}
}
