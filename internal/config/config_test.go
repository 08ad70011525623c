package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/otranscribe/otranscribe/internal/errs"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "offline engine with chunking",
			mutate:  func(c *Config) { c.Engine = EngineFaster; c.Chunking.Seconds = 30; c.Chunking.OverlapSeconds = 5 },
			wantErr: false,
		},
		{
			name:    "unknown engine",
			mutate:  func(c *Config) { c.Engine = "vosk" },
			wantErr: true,
		},
		{
			name:    "overlap equals chunk length",
			mutate:  func(c *Config) { c.Chunking.Seconds = 30; c.Chunking.OverlapSeconds = 30 },
			wantErr: true,
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.Chunking.Seconds = 30; c.Chunking.OverlapSeconds = -1 },
			wantErr: true,
		},
		{
			name:    "unknown api format",
			mutate:  func(c *Config) { c.Render.APIFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "unknown out format",
			mutate:  func(c *Config) { c.Render.OutFormat = "pdf" },
			wantErr: true,
		},
		{
			name:    "raw diarized json on offline engine",
			mutate:  func(c *Config) { c.Engine = EngineLocal; c.Render.Mode = RenderRaw },
			wantErr: true,
		},
		{
			name:    "zero bucket",
			mutate:  func(c *Config) { c.Render.Every = 0 },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Chunking.Concurrency = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errs.IsConfiguration(err) {
				t.Errorf("Validate() error = %T, want ConfigurationError", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	content := `
engine: faster
language: en
faster:
  model: medium
  device: cuda
chunking:
  seconds: 60
  overlap_seconds: 2
openai:
  timeout: 90s
render:
  out_format: md
  md_style: meeting
  fillers: ["um", "you know"]
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine != EngineFaster || cfg.Language != "en" {
		t.Errorf("engine/language = %s/%s", cfg.Engine, cfg.Language)
	}
	if cfg.Faster.Model != "medium" || cfg.Faster.Device != "cuda" {
		t.Errorf("Faster = %+v", cfg.Faster)
	}
	// Unset fields keep their defaults.
	if cfg.Faster.ComputeType != "int8" || cfg.Faster.BeamSize != 5 {
		t.Errorf("Faster defaults not applied: %+v", cfg.Faster)
	}
	if cfg.Chunking.Seconds != 60 || cfg.Chunking.OverlapSeconds != 2 || cfg.Chunking.Concurrency != 2 {
		t.Errorf("Chunking = %+v", cfg.Chunking)
	}
	if cfg.OpenAI.Timeout != 90*time.Second || cfg.OpenAI.MaxRetries != 4 {
		t.Errorf("OpenAI = %+v", cfg.OpenAI)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want value from environment", cfg.OpenAI.APIKey)
	}
	if len(cfg.Render.Fillers) != 2 || cfg.Render.Fillers[1] != "you know" {
		t.Errorf("Fillers = %v", cfg.Render.Fillers)
	}
	if cfg.Render.Every != 30 || cfg.Render.MDStyle != "meeting" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadKeepsExplicitZeroValues(t *testing.T) {
	t.Chdir(t.TempDir())
	content := `
openai:
  max_retries: 0
render:
  fillers: []
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAI.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.OpenAI.MaxRetries)
	}
	if len(cfg.Render.Fillers) != 0 {
		t.Errorf("Fillers = %v, want none", cfg.Render.Fillers)
	}
	// siblings the file leaves out keep their defaults
	if cfg.OpenAI.MaxUploadBytes != 20_000_000 || cfg.Render.Every != 30 {
		t.Errorf("defaults lost: %+v %+v", cfg.OpenAI, cfg.Render)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine != EngineOpenAI || cfg.Render.Every != 30 || cfg.Cache.Dir != ".otranscribe_cache" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEYS", "")
	os.Unsetenv("GEMINI_API_KEYS")
	os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEYS=k1, k2\n"), 0o644)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Gemini.APIKeys) != 2 || cfg.Gemini.APIKeys[1] != "k2" {
		t.Errorf("Gemini.APIKeys = %v", cfg.Gemini.APIKeys)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("engine: [unterminated"), 0o644)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected parse error")
	}
}

func TestResponseFormat(t *testing.T) {
	tests := []struct {
		engine string
		mode   string
		api    string
		want   string
	}{
		{EngineOpenAI, RenderFinal, "srt", "diarized_json"},
		{EngineFaster, RenderFinal, "srt", "json"},
		{EngineLocal, RenderRaw, "vtt", "vtt"},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.Engine, cfg.Render.Mode, cfg.Render.APIFormat = tt.engine, tt.mode, tt.api
		if got := cfg.ResponseFormat(); got != tt.want {
			t.Errorf("ResponseFormat(%s, %s, %s) = %s, want %s", tt.engine, tt.mode, tt.api, got, tt.want)
		}
	}
}
