// Package errs holds the error taxonomy shared by every pipeline stage.
package errs

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an error was raised in.
type Stage string

const (
	StageConfig     Stage = "config"
	StageNormalize  Stage = "normalize"
	StageTranscribe Stage = "transcribe"
	StageMerge      Stage = "merge"
	StageRender     Stage = "render"
	StageOutput     Stage = "output"
)

// ConfigurationError reports an invalid option combination. Always fatal.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// Configf builds a ConfigurationError.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// DecodeError reports that the external decoder could not read the input.
type DecodeError struct {
	Input      string
	Diagnostic string
	Err        error
}

func (e *DecodeError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("decode %s: %v: %s", e.Input, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("decode %s: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// AuthError is returned when the remote engine rejects the credentials.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d): %s", e.Status, e.Body)
}

// RateLimitError is a retryable throttling response.
type RateLimitError struct {
	Status int
	Body   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d): %s", e.Status, e.Body)
}

// UnavailableError is a retryable transport or server-side failure.
type UnavailableError struct {
	Status int
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("engine unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("engine unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RecognitionError reports that an engine failed to recognise a window.
// Chunk is -1 when the whole file was sent in one call.
type RecognitionError struct {
	Chunk int
	Start float64
	End   float64
	Err   error
}

func (e *RecognitionError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("recognition failed: %v", e.Err)
	}
	return fmt.Sprintf("recognition failed for chunk %d (%.2fs-%.2fs): %v", e.Chunk, e.Start, e.End, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// CacheWriteError is non-fatal: the run completes without a cache entry.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// RetryExhaustedError wraps the last retryable failure once the budget is spent.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// StageError tags a fatal error with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// At wraps err with a stage unless it is nil or already tagged.
func At(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// Retryable reports whether err is a transient engine failure.
func Retryable(err error) bool {
	var rl *RateLimitError
	var un *UnavailableError
	return errors.As(err, &rl) || errors.As(err, &un)
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ExitCode maps a fatal error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsConfiguration(err):
		return 2
	default:
		return 1
	}
}
