package media

import (
	"dario.cat/mergo"

	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

const DefaultSampleRate = 16000

// Options configure the ffmpeg-backed Normalizer.
type Options struct {
	FFmpegPath string
	SampleRate int
}

type implNormalizer struct {
	opts     Options
	executor executor.Executor
	logger   logger.Logger
}

// New creates a Normalizer that shells out to ffmpeg.
func New(opts Options, exec executor.Executor, log logger.Logger) Normalizer {
	if opts.SampleRate < 0 {
		opts.SampleRate = 0
	}
	// zero fields take the defaults
	_ = mergo.Merge(&opts, Options{FFmpegPath: "ffmpeg", SampleRate: DefaultSampleRate})
	return &implNormalizer{
		opts:     opts,
		executor: exec,
		logger:   log,
	}
}
