// Package media turns arbitrary audio or video into mono 16-bit PCM WAV and
// cuts that WAV into windows.
package media

import (
	"context"

	"github.com/otranscribe/otranscribe/internal/chunk"
)

// Normalizer prepares input files for the engines.
type Normalizer interface {
	// Normalize decodes input to mono PCM WAV. Failures are errs.DecodeError.
	Normalize(ctx context.Context, input string, opts NormalizeOptions) (*Audio, error)
	// Slice writes the samples of w to a new WAV file in dir.
	Slice(ctx context.Context, a *Audio, w chunk.Window, dir string) (string, error)
}

// Audio is a normalised WAV file on disk.
type Audio struct {
	Path       string
	Duration   float64
	SampleRate int
	Channels   int
	BitDepth   int
	// Temp is set when Path was created by Normalize and may be removed.
	Temp bool
}

// ByteRate is the number of PCM bytes per second of audio.
func (a *Audio) ByteRate() int {
	return a.SampleRate * a.Channels * a.BitDepth / 8
}

// NormalizeOptions control a single Normalize call.
type NormalizeOptions struct {
	// TempDir receives the normalised WAV. Empty means os.TempDir().
	TempDir string
	// MaxSeconds truncates the output when positive.
	MaxSeconds float64
}
