package media

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/otranscribe/otranscribe/internal/chunk"
)

// frames per PCMBuffer read
const sliceBufferFrames = 16384

// Slice copies the samples covered by w into <dir>/<stem>_chunk_<index>.wav.
func (n *implNormalizer) Slice(ctx context.Context, a *Audio, w chunk.Window, dir string) (string, error) {
	in, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", a.Path, err)
	}
	defer in.Close()

	d := wav.NewDecoder(in)
	if err := d.FwdToPCM(); err != nil {
		return "", fmt.Errorf("seek to pcm in %s: %w", a.Path, err)
	}

	channels := int(d.NumChans)
	skip := int64(math.Round(w.Offset*float64(d.SampleRate))) * int64(channels)
	want := int(math.Round(w.Duration*float64(d.SampleRate))) * channels

	// Jump straight to the window's first frame instead of decoding the prefix.
	if skip > 0 {
		offset := skip * int64((d.BitDepth+7)/8)
		if remaining := int64(d.PCMLen()) - int64(d.PCMChunk.Pos); offset > remaining {
			offset = remaining
		}
		if _, err := d.Seek(offset, io.SeekCurrent); err != nil {
			return "", fmt.Errorf("seek to %.2fs in %s: %w", w.Offset, a.Path, err)
		}
		d.PCMChunk.Pos += int(offset)
	}

	stem := strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
	outPath := filepath.Join(dir, fmt.Sprintf("%s_chunk_%03d.wav", stem, w.Index))
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", outPath, err)
	}

	enc := wav.NewEncoder(out, int(d.SampleRate), int(d.BitDepth), channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: int(d.SampleRate), NumChannels: channels},
		SourceBitDepth: int(d.BitDepth),
		Data:           make([]int, sliceBufferFrames*channels),
	}

	written := 0
	for written < want {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(outPath)
			return "", err
		}
		got, err := d.PCMBuffer(buf)
		if err != nil && err != io.EOF {
			out.Close()
			os.Remove(outPath)
			return "", fmt.Errorf("read pcm from %s: %w", a.Path, err)
		}
		if got == 0 {
			break
		}

		data := buf.Data[:got]
		if rest := want - written; len(data) > rest {
			data = data[:rest]
		}

		part := &audio.IntBuffer{Format: buf.Format, SourceBitDepth: buf.SourceBitDepth, Data: data}
		if err := enc.Write(part); err != nil {
			out.Close()
			os.Remove(outPath)
			return "", fmt.Errorf("write %s: %w", outPath, err)
		}
		written += len(data)
	}

	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("finalise %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", outPath, err)
	}

	n.logger.Debug(ctx, "Sliced window %v into %s", w, outPath)
	return outPath, nil
}
