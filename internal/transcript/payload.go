package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
)

type wireSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

type wirePayload struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Segments []wireSegment `json:"segments,omitempty"`
}

// Parse turns an engine payload into a Transcript. JSON formats yield timed
// items; plain text yields a Transcript with only the Text field set.
func Parse(format Format, payload []byte) (*Transcript, error) {
	switch {
	case format.IsJSON():
		var w wirePayload
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("parse %s payload: %w", format, err)
		}
		tr := &Transcript{Language: w.Language, Format: format, Text: w.Text}
		for _, s := range w.Segments {
			it := Item{Start: s.Start, End: s.End, Text: s.Text, Speaker: s.Speaker}
			if it.End < it.Start {
				it.End = it.Start
			}
			tr.Items = append(tr.Items, it)
		}
		return tr, nil
	case format == FormatText:
		return &Transcript{Format: format, Text: string(payload)}, nil
	default:
		return nil, errs.Configf("%s payloads carry no structured segments; use a JSON format for final rendering", format)
	}
}

// Encode serialises a transcript in the requested format. It is used when
// the payload is assembled locally (chunked or offline runs).
func Encode(format Format, tr *Transcript) ([]byte, error) {
	switch {
	case format.IsJSON():
		w := wirePayload{Text: tr.Text, Language: tr.Language}
		if w.Text == "" {
			w.Text = JoinText(tr.Items)
		}
		w.Segments = make([]wireSegment, 0, len(tr.Items))
		for _, it := range tr.Items {
			w.Segments = append(w.Segments, wireSegment(it))
		}
		return json.MarshalIndent(w, "", "  ")
	case format == FormatText:
		text := tr.Text
		if len(tr.Items) > 0 {
			text = JoinText(tr.Items)
		}
		return []byte(strings.TrimSpace(text) + "\n"), nil
	case format == FormatSRT:
		var b bytes.Buffer
		for i, it := range tr.Items {
			fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, clock(it.Start, ","), clock(it.End, ","), strings.TrimSpace(it.Text))
		}
		return b.Bytes(), nil
	case format == FormatVTT:
		var b bytes.Buffer
		b.WriteString("WEBVTT\n\n")
		for _, it := range tr.Items {
			fmt.Fprintf(&b, "%s --> %s\n%s\n\n", clock(it.Start, "."), clock(it.End, "."), strings.TrimSpace(it.Text))
		}
		return b.Bytes(), nil
	default:
		return nil, errs.Configf("unknown response format %q", format)
	}
}

// clock formats seconds as HH:MM:SS<sep>mmm.
func clock(seconds float64, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms)
}
