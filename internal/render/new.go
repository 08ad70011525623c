package render

import (
	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

const (
	OutTXT  = "txt"
	OutMD   = "md"
	OutDOCX = "docx"

	StyleSimple  = "simple"
	StyleMeeting = "meeting"
)

// Options configures a Renderer.
type Options struct {
	Mode      string
	Format    transcript.Format
	OutFormat string
	MDStyle   string
	Every     float64
	Fillers   []string
	Speakers  SpeakerMap
}

// OptionsFrom builds renderer options from the render section of the config.
func OptionsFrom(c config.RenderConfig, speakers SpeakerMap) Options {
	return Options{
		Mode:      c.Mode,
		Format:    transcript.Format(c.APIFormat),
		OutFormat: c.OutFormat,
		MDStyle:   c.MDStyle,
		Every:     c.Every,
		Fillers:   c.Fillers,
		Speakers:  speakers,
	}
}

// New returns the renderer for opts.Mode.
func New(opts Options) (Renderer, error) {
	switch opts.Mode {
	case config.RenderRaw:
		if _, err := transcript.ParseFormat(string(opts.Format)); err != nil {
			return nil, err
		}
		return &rawRenderer{format: opts.Format}, nil
	case config.RenderFinal:
		return newFinal(opts)
	default:
		return nil, errs.Configf("unknown render mode %q", opts.Mode)
	}
}
