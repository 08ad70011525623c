package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/otranscribe/otranscribe/internal/media"
	"github.com/otranscribe/otranscribe/internal/processor"
	"github.com/otranscribe/otranscribe/internal/watcher"
)

type WatchCMD struct {
	Input         *string `help:"Directory to watch (default watch.input)"`
	Output        *string `help:"Directory for transcripts (default watch.output)"`
	MaxConcurrent *int    `name:"max-concurrent" help:"Files transcribed at the same time"`
	Existing      bool    `help:"Also transcribe media already in the input directory"`
}

func (w *WatchCMD) Run(app *App) error {
	cfg, log, err := app.load()
	if err != nil {
		return err
	}
	set(&cfg.Watch.Input, w.Input)
	set(&cfg.Watch.Output, w.Output)
	set(&cfg.Watch.MaxConcurrent, w.MaxConcurrent)

	for _, dir := range []string{cfg.Watch.Input, cfg.Watch.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	// progress bars from concurrent runs would interleave
	proc, err := app.pipeline(cfg, log, nil)
	if err != nil {
		return err
	}
	handler := func(ctx context.Context, path string) error {
		out, err := proc.Process(ctx, processor.Request{Input: path, OutputDir: cfg.Watch.Output})
		if err != nil {
			return errors.New(ErrorLine(err))
		}
		log.Info(ctx, "[DONE] %s -> %s", path, out.OutputPath)
		return nil
	}

	wt, err := watcher.New(cfg.Watch.Input, handler, log, watcher.Options{
		MaxConcurrent: cfg.Watch.MaxConcurrent,
		Match:         media.IsMedia,
		ScanExisting:  w.Existing,
	})
	if err != nil {
		return err
	}
	defer wt.Stop()

	log.Info(app.Ctx, "Watching %s, writing to %s. Press Ctrl+C to stop", cfg.Watch.Input, cfg.Watch.Output)
	if err := wt.Start(app.Ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
