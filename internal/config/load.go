package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFillers are the disfluencies removed from final transcripts.
var DefaultFillers = []string{
	"hã+", "hum+", "uh+", "eh+", "um+", "tipo", "pronto", "ok", "okay", "está bem",
}

// Defaults returns the configuration used for every unset field.
func Defaults() Config {
	return Config{
		Engine:   EngineOpenAI,
		Language: "pt",
		OpenAI: OpenAIConfig{
			BaseURL:          "https://api.openai.com/v1",
			Model:            "gpt-4o-transcribe-diarize",
			ChunkingStrategy: "auto",
			Timeout:          10 * time.Minute,
			MaxRetries:       4,
			MaxUploadBytes:   20_000_000,
		},
		Whisper: WhisperConfig{
			BinaryPath: "whisper-cli",
			ModelsDir:  "models",
			Model:      "base",
			Threads:    4,
		},
		Faster: FasterConfig{
			Python:      "python3",
			Model:       "small",
			Device:      "auto",
			ComputeType: "int8",
			BeamSize:    5,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			SampleRate: 16000,
		},
		Chunking: ChunkingConfig{
			Concurrency: 2,
		},
		Merge: MergeConfig{
			ToleranceSeconds: 1.0,
			Similarity:       0.85,
		},
		Cache: CacheConfig{
			Dir: ".otranscribe_cache",
		},
		Render: RenderConfig{
			Mode:      RenderFinal,
			APIFormat: "diarized_json",
			Every:     30,
			OutFormat: "txt",
			MDStyle:   "simple",
			Fillers:   append([]string(nil), DefaultFillers...),
		},
		Watch: WatchConfig{
			Input:         "data/input",
			Output:        "data/output",
			MaxConcurrent: 2,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
	}
}

// Load reads the YAML file at path over Defaults, so keys the file leaves
// out keep their default while explicit zero values (an empty filler list,
// no retries) are honoured. A missing file yields the defaults. Secrets come
// from the environment (and a .env file in the working directory) when the
// file leaves them empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if len(cfg.Gemini.APIKeys) == 0 {
		for _, k := range strings.Split(os.Getenv("GEMINI_API_KEYS"), ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.Gemini.APIKeys = append(cfg.Gemini.APIKeys, k)
			}
		}
	}
	if len(cfg.Gemini.APIKeys) == 0 {
		if k := os.Getenv("GEMINI_API_KEY"); k != "" {
			cfg.Gemini.APIKeys = []string{k}
		}
	}
}
