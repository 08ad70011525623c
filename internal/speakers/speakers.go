// Package speakers runs a short sample transcription and asks the user to
// name each detected speaker.
package speakers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/processor"
	"github.com/otranscribe/otranscribe/internal/render"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

const (
	DefaultSeconds  = 120
	DefaultExcerpts = 3
	excerptRunes    = 120
)

// Options control a sample run.
type Options struct {
	Seconds  float64
	Excerpts int
	// MapPath overrides <stem>_speakers.json next to the input.
	MapPath string
}

// Speaker is one label found in the sample, in order of first appearance.
type Speaker struct {
	Label    string
	Excerpts []transcript.Item
}

// MapPath is where the speaker map for input is written by default.
func MapPath(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+"_speakers.json")
}

// Collect groups items by normalised speaker label and keeps the first n
// non-empty excerpts of each.
func Collect(items []transcript.Item, n int) []Speaker {
	var order []string
	byLabel := map[string]*Speaker{}
	for _, it := range items {
		label := render.NormalizeSpeaker(it.Speaker)
		text := strings.Join(strings.Fields(it.Text), " ")
		if label == "" || text == "" {
			continue
		}
		s, ok := byLabel[label]
		if !ok {
			s = &Speaker{Label: label}
			byLabel[label] = s
			order = append(order, label)
		}
		if len(s.Excerpts) < n {
			it.Text = text
			s.Excerpts = append(s.Excerpts, it)
		}
	}
	out := make([]Speaker, 0, len(order))
	for _, l := range order {
		out = append(out, *byLabel[l])
	}
	return out
}

// Identify transcribes the start of input, shows excerpts per speaker on out,
// reads a display name for each from in and saves the resulting map. It
// returns the map path.
func Identify(ctx context.Context, proc processor.Processor, input string, opts Options, in io.Reader, out io.Writer) (string, error) {
	if opts.Seconds <= 0 {
		opts.Seconds = DefaultSeconds
	}
	if opts.Excerpts <= 0 {
		opts.Excerpts = DefaultExcerpts
	}

	res, err := proc.Process(ctx, processor.Request{Input: input, MaxSeconds: opts.Seconds, SkipOutput: true})
	if err != nil {
		return "", err
	}
	if res.Transcript == nil {
		return "", errs.Configf("sample run returned no segments")
	}
	speakers := Collect(res.Transcript.Items, opts.Excerpts)
	if len(speakers) == 0 {
		return "", errs.Configf("no speakers found in the first %.0fs of %s", opts.Seconds, input)
	}

	fmt.Fprintf(out, "Found %d speaker(s) in the first %.0fs.\n", len(speakers), opts.Seconds)
	scanner := bufio.NewScanner(in)
	names := render.SpeakerMap{}
	for _, s := range speakers {
		fmt.Fprintf(out, "\n%s\n", s.Label)
		for _, ex := range s.Excerpts {
			fmt.Fprintf(out, "  [%s] %s\n", render.Stamp(ex.Start), truncate(ex.Text, excerptRunes))
		}
		fmt.Fprintf(out, "Name for %s (enter keeps the label): ", s.Label)
		if !scanner.Scan() {
			break
		}
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names[s.Label] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read names: %w", err)
	}

	path := opts.MapPath
	if path == "" {
		path = MapPath(input)
	}
	if err := names.Save(path); err != nil {
		return "", err
	}
	fmt.Fprintf(out, "\nSaved %s\nRun: otranscribe -i %q --speaker-map %q\n", path, input, path)
	return path, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
