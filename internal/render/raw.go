package render

import (
	"os"

	"github.com/otranscribe/otranscribe/internal/transcript"
)

// rawRenderer writes the payload exactly as the engine (or merger) produced it.
type rawRenderer struct {
	format transcript.Format
}

func (r *rawRenderer) Extension() string { return r.format.Extension() }

func (r *rawRenderer) Write(path string, in Input) error {
	return os.WriteFile(path, in.Payload, 0o644)
}
