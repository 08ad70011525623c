// Package chunk splits long audio into overlapping windows and stitches the
// per-window transcripts back into a single timeline.
package chunk

import (
	"fmt"

	"github.com/otranscribe/otranscribe/internal/errs"
)

// eps absorbs float drift when comparing accumulated offsets to the duration.
const eps = 1e-9

// Window is one slice of the input timeline, in seconds.
type Window struct {
	Index    int
	Offset   float64
	Duration float64
}

// End returns the window's exclusive end time.
func (w Window) End() float64 { return w.Offset + w.Duration }

func (w Window) String() string {
	return fmt.Sprintf("#%d [%.2fs, %.2fs)", w.Index, w.Offset, w.End())
}

// Plan covers [0, total) with windows of length size advancing by
// size-overlap. A non-positive size disables chunking.
func Plan(total, size, overlap float64) ([]Window, error) {
	if total < 0 {
		total = 0
	}
	if size <= 0 {
		return []Window{{Index: 0, Offset: 0, Duration: total}}, nil
	}
	if overlap < 0 {
		return nil, errs.Configf("chunk overlap %.2fs must not be negative", overlap)
	}
	if overlap >= size {
		return nil, errs.Configf("chunk overlap %.2fs must be smaller than chunk length %.2fs", overlap, size)
	}
	if total <= size {
		return []Window{{Index: 0, Offset: 0, Duration: total}}, nil
	}

	step := size - overlap
	var windows []Window
	for i := 0; ; i++ {
		offset := float64(i) * step
		end := offset + size
		if end >= total-eps {
			windows = append(windows, Window{Index: i, Offset: offset, Duration: total - offset})
			return windows, nil
		}
		windows = append(windows, Window{Index: i, Offset: offset, Duration: size})
	}
}
