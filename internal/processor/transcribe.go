package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/otranscribe/otranscribe/internal/chunk"
	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/engine"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/media"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

// wavHeaderSlack keeps byte-limited windows under the upload limit once the
// WAV header is added.
const wavHeaderSlack = 4096

type assembly struct {
	payload    []byte
	transcript *transcript.Transcript
	windows    int
}

// transcribe produces the engine payload for req, chunking when configured
// or when the input is too large for a single remote call.
func (p *implProcessor) transcribe(ctx context.Context, req Request, format transcript.Format) (*assembly, error) {
	caps := p.engine.Capabilities()

	// Remote engines read the original file when nothing forces a WAV.
	if caps.AcceptsMedia && p.cfg.Chunking.Seconds <= 0 && req.MaxSeconds <= 0 {
		info, err := os.Stat(req.Input)
		if err != nil {
			return nil, errs.At(errs.StageConfig, err)
		}
		if caps.MaxUploadBytes <= 0 || info.Size() <= caps.MaxUploadBytes {
			res, err := p.recognise(ctx, req.Input, format)
			if err != nil {
				return nil, errs.At(errs.StageTranscribe, err)
			}
			return &assembly{payload: res.Payload, transcript: res.Transcript, windows: 1}, nil
		}
		p.logger.Info(ctx, "Input is %d bytes, over the %d byte upload limit: chunking", info.Size(), caps.MaxUploadBytes)
	}

	// Step 1: Normalise into a run-private temp dir
	tempDir, err := os.MkdirTemp(p.cfg.Paths.Temp, "otranscribe-")
	if err != nil {
		return nil, errs.At(errs.StageNormalize, fmt.Errorf("create temp dir: %w", err))
	}
	defer p.cleanupTempDir(ctx, tempDir)

	audio, err := p.normalizer.Normalize(ctx, req.Input, media.NormalizeOptions{TempDir: tempDir, MaxSeconds: req.MaxSeconds})
	if err != nil {
		return nil, errs.At(errs.StageNormalize, err)
	}
	p.logger.Info(ctx, "Audio: %.1fs, %d Hz", audio.Duration, audio.SampleRate)

	// Step 2: Plan windows
	size, overlap := p.cfg.Chunking.Seconds, p.cfg.Chunking.OverlapSeconds
	if size <= 0 && caps.MaxUploadBytes > 0 && caps.AcceptsMedia && audio.ByteRate() > 0 {
		if fileSize(audio.Path) > caps.MaxUploadBytes {
			size = float64(caps.MaxUploadBytes-wavHeaderSlack) / float64(audio.ByteRate())
			overlap = 0
		}
	}
	windows, err := chunk.Plan(audio.Duration, size, overlap)
	if err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}

	if len(windows) == 1 {
		res, err := p.recognise(ctx, audio.Path, format)
		if err != nil {
			return nil, errs.At(errs.StageTranscribe, err)
		}
		return &assembly{payload: res.Payload, transcript: res.Transcript, windows: 1}, nil
	}

	// Step 3: Fan out over windows
	p.logger.Info(ctx, "Transcribing %d windows of %.0fs (overlap %.0fs), %d at a time",
		len(windows), size, overlap, p.cfg.Chunking.Concurrency)
	results, err := p.fanOut(ctx, audio, windows, tempDir, p.chunkFormat(format))
	if err != nil {
		return nil, errs.At(errs.StageTranscribe, err)
	}

	// Step 4: Merge
	tr, err := p.merge(windows, results, format)
	if err != nil {
		return nil, errs.At(errs.StageMerge, err)
	}
	payload, err := transcript.Encode(format, tr)
	if err != nil {
		return nil, errs.At(errs.StageMerge, err)
	}
	return &assembly{payload: payload, transcript: tr, windows: len(windows)}, nil
}

func (p *implProcessor) recognise(ctx context.Context, path string, format transcript.Format) (*engine.Result, error) {
	return p.engine.Transcribe(ctx, engine.Request{
		AudioPath: path,
		Language:  p.cfg.Language,
		Format:    format,
	})
}

// chunkFormat is what each window is requested in. Merging needs timed
// segments: remote json and the non-JSON formats carry none, so windows ask
// for a segment-bearing format and the merged transcript is encoded back.
// Offline engines build segments locally whatever the format.
func (p *implProcessor) chunkFormat(format transcript.Format) transcript.Format {
	switch {
	case format == transcript.FormatVerboseJSON || format == transcript.FormatDiarizedJSON:
		return format
	case p.engine.Diarizes():
		return transcript.FormatDiarizedJSON
	case p.engine.Name() == config.EngineOpenAI:
		return transcript.FormatVerboseJSON
	default:
		return transcript.FormatJSON
	}
}

// fanOut transcribes every window with bounded concurrency. Results are
// indexed by window; the first failure cancels the rest.
func (p *implProcessor) fanOut(ctx context.Context, audio *media.Audio, windows []chunk.Window, dir string, format transcript.Format) ([]*engine.Result, error) {
	results := make([]*engine.Result, len(windows))
	bar := p.newProgressBar(len(windows))
	defer bar.Close()

	sem := newSemaphore(p.cfg.Chunking.Concurrency)
	g, gctx := errgroup.WithContext(ctx)

	for _, w := range windows {
		g.Go(func() error {
			if err := sem.acquire(gctx); err != nil {
				return err
			}
			defer sem.release()

			path, err := p.normalizer.Slice(gctx, audio, w, dir)
			if err != nil {
				return fmt.Errorf("slice %s: %w", w, err)
			}
			if !p.cfg.Paths.KeepTemp {
				defer p.cleanupTempFile(gctx, path)
			}

			p.logger.Debug(gctx, "Window %s -> %s", w, path)
			res, err := p.recognise(gctx, path, format)
			if err != nil {
				return windowError(w, err)
			}
			if res.Transcript == nil {
				return &errs.RecognitionError{Chunk: w.Index, Start: w.Offset, End: w.End(),
					Err: errors.New("engine returned no segments")}
			}
			results[w.Index] = res
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// windowError attaches the window's time range to an engine failure.
func windowError(w chunk.Window, err error) error {
	var re *errs.RecognitionError
	if errors.As(err, &re) {
		return &errs.RecognitionError{Chunk: w.Index, Start: w.Offset, End: w.End(), Err: re.Err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("chunk %d (%.2fs-%.2fs): %w", w.Index, w.Offset, w.End(), err)
}

func (p *implProcessor) merge(windows []chunk.Window, results []*engine.Result, format transcript.Format) (*transcript.Transcript, error) {
	parts := make([][]transcript.Item, len(results))
	language := ""
	for i, r := range results {
		parts[i] = r.Transcript.Items
		if language == "" {
			language = r.Transcript.Language
		}
	}
	opts := chunk.MergeOptions{
		Tolerance:  p.cfg.Merge.ToleranceSeconds,
		Similarity: p.cfg.Merge.Similarity,
	}
	items, err := chunk.Merge(windows, parts, opts)
	if err != nil {
		return nil, err
	}
	return &transcript.Transcript{
		Items:    items,
		Language: language,
		Format:   format,
		Text:     transcript.JoinText(items),
	}, nil
}

func (p *implProcessor) newProgressBar(n int) *progressbar.ProgressBar {
	w := p.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(p.progress != nil),
		progressbar.OptionSetDescription("transcribing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// semaphore implements a simple counting semaphore for limiting concurrency
type semaphore struct {
	ch chan struct{}
}

func newSemaphore(capacity int) *semaphore {
	if capacity < 1 {
		capacity = 1
	}
	return &semaphore{ch: make(chan struct{}, capacity)}
}

// acquire blocks until a slot is free or ctx is done.
func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.ch
}
