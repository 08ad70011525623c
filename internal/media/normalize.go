package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

// Normalize converts input to 16-bit mono PCM at the configured sample rate.
// WAV files already in that shape are used in place.
func (n *implNormalizer) Normalize(ctx context.Context, input string, opts NormalizeOptions) (*Audio, error) {
	if _, err := os.Stat(input); err != nil {
		return nil, &errs.DecodeError{Input: input, Err: err}
	}

	if opts.MaxSeconds <= 0 && strings.EqualFold(filepath.Ext(input), ".wav") {
		if a, err := inspect(input); err == nil && a.SampleRate == n.opts.SampleRate && a.Channels == 1 && a.BitDepth == 16 {
			n.logger.Debug(ctx, "Input already normalised: %s", input)
			return a, nil
		}
	}

	dir := opts.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	out, err := os.CreateTemp(dir, strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))+"-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp wav: %w", err)
	}
	outPath := out.Name()
	out.Close()

	// -vn: drop video, -ac 1: mono, -c:a pcm_s16le: 16-bit little-endian PCM
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(n.opts.SampleRate),
		"-c:a", "pcm_s16le",
	}
	if opts.MaxSeconds > 0 {
		args = append(args, "-t", strconv.FormatFloat(opts.MaxSeconds, 'f', 3, 64))
	}
	args = append(args, "-y", outPath)

	n.logger.Info(ctx, "Normalising audio: %s", input)
	if _, err := n.executor.Execute(ctx, n.opts.FFmpegPath, args...); err != nil {
		os.Remove(outPath)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		de := &errs.DecodeError{Input: input, Err: err}
		var ce *executor.CommandError
		if errors.As(err, &ce) {
			de.Err = ce.Err
			de.Diagnostic = ce.Stderr
		}
		return nil, de
	}

	a, err := inspect(outPath)
	if err != nil {
		os.Remove(outPath)
		return nil, &errs.DecodeError{Input: input, Err: err}
	}
	a.Temp = true
	n.logger.Info(ctx, "Audio normalised: %s (%.1fs)", outPath, a.Duration)
	return a, nil
}

// inspect reads the WAV header and duration of path.
func inspect(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("find pcm data in %s: %w", path, err)
	}
	byteRate := int64(d.SampleRate) * int64(d.NumChans) * int64(d.BitDepth) / 8
	if byteRate == 0 {
		return nil, fmt.Errorf("%s has an empty audio format", path)
	}
	return &Audio{
		Path:       path,
		Duration:   float64(d.PCMLen()) / float64(byteRate),
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}, nil
}
