// Package engine adapts the speech recognition backends to one capability.
package engine

import (
	"context"

	"github.com/otranscribe/otranscribe/internal/transcript"
)

// Engine recognises speech in one audio file or window.
type Engine interface {
	Name() string
	// Diarizes reports whether items carry real speaker labels.
	Diarizes() bool
	Capabilities() Capabilities
	// Transcribe fails with errs.AuthError, errs.RateLimitError,
	// errs.UnavailableError, errs.RecognitionError or errs.ConfigurationError.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Capabilities describe what the processor may hand to an engine.
type Capabilities struct {
	// AcceptsMedia is set when the engine reads compressed audio or video
	// directly and needs no normalised WAV.
	AcceptsMedia bool
	// MaxUploadBytes is the largest file accepted in one call; 0 is unlimited.
	MaxUploadBytes int64
}

// Request is one recognition call.
type Request struct {
	AudioPath string
	Language  string
	Format    transcript.Format
}

// Result holds the engine payload and, for JSON formats, its parsed form.
type Result struct {
	Payload    []byte
	Format     transcript.Format
	Transcript *transcript.Transcript
}

// offlineSpeaker labels every item of engines without diarization.
const offlineSpeaker = "Speaker 0"
