// Package cli holds the otranscribe command line, parsed with kong.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/otranscribe/otranscribe/internal/cache"
	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/engine"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/media"
	"github.com/otranscribe/otranscribe/internal/processor"
	"github.com/otranscribe/otranscribe/internal/render"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

// Globals are the flags every command accepts.
type Globals struct {
	Config   string  `short:"c" default:"config.yaml" type:"path" help:"YAML config file; a missing file means defaults"`
	LogLevel *string `help:"Log level: debug, info, warn or error"`
}

// CLI is the command tree.
type CLI struct {
	Globals `embed:""`

	Transcribe TranscribeCMD `cmd:"" default:"withargs" help:"Transcribe one audio or video file (default command)"`
	Doctor     DoctorCMD     `cmd:"" help:"Check that the tools an engine needs are installed"`
	Speakers   SpeakersCMD   `cmd:"" help:"Name the speakers from a short sample and save a speaker map"`
	Cache      CacheCMD      `cmd:"" help:"Manage the result cache"`
	Watch      WatchCMD      `cmd:"" help:"Transcribe every media file dropped into a directory"`
	Summarize  SummarizeCMD  `cmd:"" help:"Write meeting notes for finished transcripts with Gemini"`
}

// App carries what commands share at run time.
type App struct {
	Globals *Globals
	Ctx     context.Context
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// load reads the config file and applies the global log level.
func (a *App) load() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(a.Globals.Config)
	if err != nil {
		return nil, nil, errs.At(errs.StageConfig, errs.Configf("%v", err))
	}
	if a.Globals.LogLevel != nil {
		cfg.Logging.Level = *a.Globals.LogLevel
	}
	return cfg, logger.New(cfg.Logging.Level), nil
}

// pipeline wires engine, normaliser, cache and renderer for cfg.
func (a *App) pipeline(cfg *config.Config, log logger.Logger, progress io.Writer) (processor.Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}
	exec := executor.New()
	eng, err := engine.New(cfg, exec, log)
	if err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}
	speakers, err := render.LoadSpeakerMap(cfg.Render.SpeakerMap)
	if err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}
	r, err := render.New(render.OptionsFrom(cfg.Render, speakers))
	if err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}

	store := cache.Disabled()
	if !cfg.Cache.Disabled {
		store = cache.New(cfg.Cache.Dir, log)
	}
	norm := media.New(media.Options{FFmpegPath: cfg.FFmpeg.BinaryPath, SampleRate: cfg.FFmpeg.SampleRate}, exec, log)

	return processor.New(cfg, processor.Deps{
		Engine:     eng,
		Normalizer: norm,
		Cache:      store,
		Renderer:   r,
		Logger:     log,
		Progress:   progress,
	}), nil
}

// ErrorLine formats a fatal error the way the CLI prints it.
func ErrorLine(err error) string {
	var se *errs.StageError
	if errors.As(err, &se) {
		return fmt.Sprintf("ERROR [%s]: %v", se.Stage, se.Err)
	}
	return fmt.Sprintf("ERROR: %v", err)
}
