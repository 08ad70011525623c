package cli

import (
	"fmt"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/processor"
)

// TranscribeCMD runs one file through the pipeline. Unset flags keep the
// config file values.
type TranscribeCMD struct {
	Input  string `short:"i" required:"" help:"Audio or video file"`
	Output string `short:"o" help:"Output file (default <stem>.<ext> next to the input)"`

	Engine   *string `help:"Engine: openai, local or faster"`
	Model    *string `help:"Model of the selected engine"`
	Language *string `help:"Spoken language code, or auto"`

	APIFormat *string  `name:"api-format" help:"Payload format for raw output: diarized_json, json, text, srt, vtt, verbose_json"`
	Render    *string  `help:"raw writes the engine payload, final writes a cleaned transcript"`
	Every     *float64 `help:"Seconds between timestamp markers in final output"`
	OutFormat *string  `name:"out-format" help:"Final output format: txt, md or docx"`
	MDStyle   *string  `name:"md-style" help:"Markdown style: simple or meeting"`

	Chunking            *string  `help:"Remote chunking strategy sent to the API"`
	ChunkSeconds        *float64 `name:"chunk-seconds" help:"Split audio into windows of this many seconds (0 disables)"`
	ChunkOverlapSeconds *float64 `name:"chunk-overlap-seconds" help:"Overlap between consecutive windows"`
	Concurrency         *int     `help:"Windows transcribed at the same time"`

	WhisperModel      *string `name:"whisper-model" help:"whisper.cpp model name"`
	FasterModel       *string `name:"faster-model" help:"faster-whisper model name"`
	FasterDevice      *string `name:"faster-device" help:"faster-whisper device"`
	FasterComputeType *string `name:"faster-compute-type" help:"faster-whisper compute type"`

	CacheDir   *string `name:"cache-dir" help:"Result cache directory"`
	NoCache    bool    `name:"no-cache" help:"Neither read nor write the result cache"`
	SpeakerMap *string `name:"speaker-map" help:"JSON file mapping speaker labels to names"`
	KeepTemp   bool    `name:"keep-temp" help:"Keep normalised audio and chunk files"`
	TempDir    *string `name:"temp-dir" help:"Directory for temporary audio"`
}

func (t *TranscribeCMD) Run(app *App) error {
	cfg, log, err := app.load()
	if err != nil {
		return err
	}
	t.apply(cfg)

	proc, err := app.pipeline(cfg, log, app.Stderr)
	if err != nil {
		return err
	}
	out, err := proc.Process(app.Ctx, processor.Request{Input: t.Input, Output: t.Output})
	if err != nil {
		return err
	}
	fmt.Fprintln(app.Stdout, out.OutputPath)
	return nil
}

func (t *TranscribeCMD) apply(cfg *config.Config) {
	set(&cfg.Engine, t.Engine)
	set(&cfg.Language, t.Language)
	if t.Model != nil {
		switch cfg.Engine {
		case config.EngineLocal:
			cfg.Whisper.Model = *t.Model
		case config.EngineFaster:
			cfg.Faster.Model = *t.Model
		default:
			cfg.OpenAI.Model = *t.Model
		}
	}

	set(&cfg.Render.APIFormat, t.APIFormat)
	set(&cfg.Render.Mode, t.Render)
	set(&cfg.Render.Every, t.Every)
	set(&cfg.Render.OutFormat, t.OutFormat)
	set(&cfg.Render.MDStyle, t.MDStyle)
	set(&cfg.Render.SpeakerMap, t.SpeakerMap)

	set(&cfg.OpenAI.ChunkingStrategy, t.Chunking)
	set(&cfg.Chunking.Seconds, t.ChunkSeconds)
	set(&cfg.Chunking.OverlapSeconds, t.ChunkOverlapSeconds)
	set(&cfg.Chunking.Concurrency, t.Concurrency)

	set(&cfg.Whisper.Model, t.WhisperModel)
	set(&cfg.Faster.Model, t.FasterModel)
	set(&cfg.Faster.Device, t.FasterDevice)
	set(&cfg.Faster.ComputeType, t.FasterComputeType)

	set(&cfg.Cache.Dir, t.CacheDir)
	if t.NoCache {
		cfg.Cache.Disabled = true
	}
	set(&cfg.Paths.Temp, t.TempDir)
	if t.KeepTemp {
		cfg.Paths.KeepTemp = true
	}
}

// set overwrites dst when the flag was given.
func set[T any](dst *T, flag *T) {
	if flag != nil {
		*dst = *flag
	}
}
