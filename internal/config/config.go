package config

import (
	"time"

	"github.com/otranscribe/otranscribe/internal/errs"
)

type Config struct {
	Engine   string         `yaml:"engine"`
	Language string         `yaml:"language"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Whisper  WhisperConfig  `yaml:"whisper"`
	Faster   FasterConfig   `yaml:"faster"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Merge    MergeConfig    `yaml:"merge"`
	Cache    CacheConfig    `yaml:"cache"`
	Render   RenderConfig   `yaml:"render"`
	Paths    PathsConfig    `yaml:"paths"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Gemini   GeminiConfig   `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	ChunkingStrategy string        `yaml:"chunking_strategy"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

type WhisperConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ModelsDir  string `yaml:"models_dir"`
	Model      string `yaml:"model"`
	// ModelPath overrides ModelsDir/ggml-<Model>.bin when set.
	ModelPath string `yaml:"model_path"`
	Threads   int    `yaml:"threads"`
}

type FasterConfig struct {
	Python      string `yaml:"python"`
	Model       string `yaml:"model"`
	Device      string `yaml:"device"`
	ComputeType string `yaml:"compute_type"`
	BeamSize    int    `yaml:"beam_size"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	SampleRate int    `yaml:"sample_rate"`
}

type ChunkingConfig struct {
	Seconds        float64 `yaml:"seconds"`
	OverlapSeconds float64 `yaml:"overlap_seconds"`
	Concurrency    int     `yaml:"concurrency"`
}

type MergeConfig struct {
	ToleranceSeconds float64 `yaml:"tolerance_seconds"`
	Similarity       float64 `yaml:"similarity"`
}

type CacheConfig struct {
	Dir      string `yaml:"dir"`
	Disabled bool   `yaml:"disabled"`
}

type RenderConfig struct {
	Mode       string   `yaml:"mode"`
	APIFormat  string   `yaml:"api_format"`
	Every      float64  `yaml:"every"`
	OutFormat  string   `yaml:"out_format"`
	MDStyle    string   `yaml:"md_style"`
	Fillers    []string `yaml:"fillers"`
	SpeakerMap string   `yaml:"speaker_map"`
}

type PathsConfig struct {
	Temp     string `yaml:"temp"`
	KeepTemp bool   `yaml:"keep_temp"`
}

type WatchConfig struct {
	Input         string `yaml:"input"`
	Output        string `yaml:"output"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
	// BaseURL overrides the Gemini API endpoint.
	BaseURL string `yaml:"base_url"`
}

const (
	EngineOpenAI = "openai"
	EngineLocal  = "local"
	EngineFaster = "faster"

	RenderRaw   = "raw"
	RenderFinal = "final"
)

var (
	engines    = []string{EngineOpenAI, EngineLocal, EngineFaster}
	outFormats = []string{"txt", "md", "docx"}
	mdStyles   = []string{"simple", "meeting"}
	apiFormats = []string{"diarized_json", "json", "text", "srt", "vtt", "verbose_json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate rejects invalid option combinations with a ConfigurationError.
func (c *Config) Validate() error {
	if !oneOf(c.Engine, engines) {
		return errs.Configf("unknown engine %q (want one of %v)", c.Engine, engines)
	}
	if c.Render.Mode != RenderRaw && c.Render.Mode != RenderFinal {
		return errs.Configf("render.mode must be raw or final, got %q", c.Render.Mode)
	}
	if !oneOf(c.Render.APIFormat, apiFormats) {
		return errs.Configf("unknown api format %q (want one of %v)", c.Render.APIFormat, apiFormats)
	}
	if !oneOf(c.Render.OutFormat, outFormats) {
		return errs.Configf("unknown out format %q (want one of %v)", c.Render.OutFormat, outFormats)
	}
	if !oneOf(c.Render.MDStyle, mdStyles) {
		return errs.Configf("unknown md style %q (want one of %v)", c.Render.MDStyle, mdStyles)
	}
	if c.Render.Every <= 0 {
		return errs.Configf("render.every must be positive, got %v", c.Render.Every)
	}
	if c.Render.Mode == RenderRaw && c.Render.APIFormat == "diarized_json" && c.Engine != EngineOpenAI {
		return errs.Configf("engine %s cannot produce diarized_json", c.Engine)
	}
	if c.Chunking.Seconds < 0 {
		return errs.Configf("chunking.seconds must not be negative, got %v", c.Chunking.Seconds)
	}
	if c.Chunking.Seconds > 0 && (c.Chunking.OverlapSeconds < 0 || c.Chunking.OverlapSeconds >= c.Chunking.Seconds) {
		return errs.Configf("chunking.overlap_seconds must be in [0, %v), got %v", c.Chunking.Seconds, c.Chunking.OverlapSeconds)
	}
	if c.Chunking.Concurrency < 1 {
		return errs.Configf("chunking.concurrency must be at least 1, got %d", c.Chunking.Concurrency)
	}
	if c.Merge.Similarity <= 0 || c.Merge.Similarity > 1 {
		return errs.Configf("merge.similarity must be in (0, 1], got %v", c.Merge.Similarity)
	}
	if c.Logging.Level != "" && !oneOf(c.Logging.Level, logLevels) {
		return errs.Configf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// EngineModel returns the model name of the selected engine.
func (c *Config) EngineModel() string {
	switch c.Engine {
	case EngineLocal:
		return c.Whisper.Model
	case EngineFaster:
		return c.Faster.Model
	default:
		return c.OpenAI.Model
	}
}

// ResponseFormat is the engine payload format a run requests. Final renders
// need structured segments, with speakers when the engine can diarize.
func (c *Config) ResponseFormat() string {
	if c.Render.Mode == RenderFinal {
		if c.Engine == EngineOpenAI {
			return "diarized_json"
		}
		return "json"
	}
	return c.Render.APIFormat
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
