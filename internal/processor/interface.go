package processor

import (
	"context"
	"time"

	"github.com/otranscribe/otranscribe/internal/transcript"
)

// Processor runs one input file through cache, normalisation, recognition,
// merging and rendering.
type Processor interface {
	Process(ctx context.Context, req Request) (*Outcome, error)
}

// Request describes one run.
type Request struct {
	Input string
	// Output is the destination file. Empty means <stem>.<ext> in OutputDir.
	Output string
	// OutputDir defaults to the directory of Input.
	OutputDir string
	// MaxSeconds limits recognition to the start of the input when positive.
	MaxSeconds float64
	// SkipOutput returns the transcript without rendering a document.
	SkipOutput bool
}

// Outcome reports what a run produced.
type Outcome struct {
	RunID      string
	OutputPath string
	Format     transcript.Format
	Payload    []byte
	Transcript *transcript.Transcript
	CacheHit   bool
	Windows    int
	Elapsed    time.Duration
}
