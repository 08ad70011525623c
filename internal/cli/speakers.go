package cli

import (
	"github.com/otranscribe/otranscribe/internal/speakers"
)

type SpeakersCMD struct {
	Input    string  `short:"i" required:"" help:"Audio or video file"`
	Seconds  float64 `default:"120" help:"Length of the sample to transcribe"`
	Out      string  `help:"Speaker map path (default <stem>_speakers.json next to the input)"`
	Engine   *string `help:"Engine: openai, local or faster"`
	Language *string `help:"Spoken language code, or auto"`
}

func (s *SpeakersCMD) Run(app *App) error {
	cfg, log, err := app.load()
	if err != nil {
		return err
	}
	set(&cfg.Engine, s.Engine)
	set(&cfg.Language, s.Language)

	proc, err := app.pipeline(cfg, log, app.Stderr)
	if err != nil {
		return err
	}
	_, err = speakers.Identify(app.Ctx, proc, s.Input, speakers.Options{Seconds: s.Seconds, MapPath: s.Out}, app.Stdin, app.Stdout)
	return err
}
