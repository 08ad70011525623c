package cli

import (
	"fmt"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/summarizer"
)

type SummarizeCMD struct {
	Input  *string `help:"Directory with final transcripts (default watch.output)"`
	Output *string `help:"Directory for summaries (default: the input directory)"`
	Model  *string `help:"Gemini model"`
}

func (s *SummarizeCMD) Run(app *App) error {
	cfg, log, err := app.load()
	if err != nil {
		return err
	}
	input := cfg.Watch.Output
	set(&input, s.Input)
	output := input
	set(&output, s.Output)
	set(&cfg.Gemini.Model, s.Model)

	sum, err := summarizer.New(cfg.Gemini, log)
	if err != nil {
		return errs.At(errs.StageConfig, err)
	}
	report, err := sum.SummarizeAll(app.Ctx, input, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Stdout, "%d summarised, %d skipped, %d failed\n", report.Done, report.Skipped, report.Failed)
	if report.Failed > 0 {
		return fmt.Errorf("%d summaries failed", report.Failed)
	}
	return nil
}
