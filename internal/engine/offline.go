package engine

import (
	"errors"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

// offlineResult encodes segments from a non-diarizing engine in the
// requested format.
func offlineResult(tr *transcript.Transcript, format transcript.Format) (*Result, error) {
	if format == transcript.FormatDiarizedJSON {
		return nil, errs.Configf("offline engines cannot produce %s", format)
	}
	for i := range tr.Items {
		tr.Items[i].Text = strings.TrimSpace(tr.Items[i].Text)
		tr.Items[i].Speaker = offlineSpeaker
	}
	tr.Format = format
	payload, err := transcript.Encode(format, tr)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload, Format: format, Transcript: tr}, nil
}

// missingBinary reports whether err means the tool could not be started.
func missingBinary(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
