package render

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

// finalRenderer writes cleaned, timestamped, speaker-labelled transcripts.
type finalRenderer struct {
	cleaner  *Cleaner
	speakers SpeakerMap
	every    float64
	out      string
	style    string
}

func newFinal(opts Options) (Renderer, error) {
	switch opts.OutFormat {
	case OutTXT, OutMD, OutDOCX:
	default:
		return nil, errs.Configf("unknown out format %q", opts.OutFormat)
	}
	style := opts.MDStyle
	if style == "" {
		style = StyleSimple
	}
	if style != StyleSimple && style != StyleMeeting {
		return nil, errs.Configf("unknown md style %q", opts.MDStyle)
	}
	if opts.Every <= 0 {
		return nil, errs.Configf("marker interval must be positive, got %v", opts.Every)
	}
	cleaner, err := NewCleaner(opts.Fillers)
	if err != nil {
		return nil, err
	}
	return &finalRenderer{
		cleaner:  cleaner,
		speakers: opts.Speakers,
		every:    opts.Every,
		out:      opts.OutFormat,
		style:    style,
	}, nil
}

func (f *finalRenderer) Extension() string { return f.out }

func (f *finalRenderer) Write(path string, in Input) error {
	if f.out == OutDOCX {
		text, err := f.document(in.Transcript, StyleSimple)
		if err != nil {
			return err
		}
		title := in.Title
		if title == "" {
			title = "Transcript"
		}
		return MarkdownToDocx(title, text, path)
	}

	style := f.style
	if f.out == OutTXT {
		style = ""
	}
	text, err := f.document(in.Transcript, style)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// document renders tr. An empty style means plain text.
func (f *finalRenderer) document(tr *transcript.Transcript, style string) (string, error) {
	if tr == nil {
		return "", errors.New("final rendering needs a parsed transcript")
	}
	if len(tr.Items) == 0 {
		return f.cleaner.Clean(tr.Text) + "\n", nil
	}

	items := append([]transcript.Item(nil), tr.Items...)
	transcript.SortItems(items)
	for i := range items {
		items[i].Text = f.cleaner.Clean(items[i].Text)
		if items[i].Speaker != "" {
			items[i].Speaker = f.speakers.Label(items[i].Speaker)
		}
	}

	blocks := Blocks(items, f.every)
	var lines []string
	for i, b := range blocks {
		switch style {
		case StyleSimple:
			lines = append(lines, simpleLine(b))
		case StyleMeeting:
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, meetingHeading(b), "", b.Text)
		default:
			lines = append(lines, textLine(b))
		}
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Blocks groups ordered, cleaned items into markers. A marker starts at the
// first item with text (labelled with its bucket floor), on every speaker
// change (labelled with the item's own start) and once every seconds have
// passed since the previous marker (labelled with the bucket floor). Items
// left without text never produce a marker.
func Blocks(items []transcript.Item, every float64) []Block {
	var blocks []Block
	var last float64
	for _, it := range items {
		if it.Text == "" {
			continue
		}
		n := len(blocks)
		switch {
		case n == 0:
			last = bucket(it.Start, every)
		case it.Speaker != blocks[n-1].Speaker:
			last = it.Start
		case it.Start-last >= every:
			last = bucket(it.Start, every)
		default:
			blocks[n-1].Text += " " + it.Text
			continue
		}
		blocks = append(blocks, Block{Start: last, Speaker: it.Speaker, Text: it.Text})
	}
	return blocks
}

func bucket(start, every float64) float64 {
	return math.Floor(start/every) * every
}

// Stamp formats seconds as HH:MM:SS, truncating fractions.
func Stamp(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

func textLine(b Block) string {
	if b.Speaker == "" {
		return fmt.Sprintf("[%s] %s", Stamp(b.Start), b.Text)
	}
	return fmt.Sprintf("[%s] %s: %s", Stamp(b.Start), b.Speaker, b.Text)
}

func simpleLine(b Block) string {
	if b.Speaker == "" {
		return fmt.Sprintf("- **[%s]** %s", Stamp(b.Start), b.Text)
	}
	return fmt.Sprintf("- **[%s] %s:** %s", Stamp(b.Start), b.Speaker, b.Text)
}

func meetingHeading(b Block) string {
	if b.Speaker == "" {
		return fmt.Sprintf("### [%s]", Stamp(b.Start))
	}
	return fmt.Sprintf("### [%s] %s", Stamp(b.Start), b.Speaker)
}
