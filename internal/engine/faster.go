package engine

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

//go:embed assets/faster_whisper.py
var fasterScript []byte

// FasterScript returns the embedded faster-whisper helper.
func FasterScript() []byte { return fasterScript }

// fasterEngine runs faster-whisper through the embedded Python helper.
type fasterEngine struct {
	python      string
	model       string
	device      string
	computeType string
	beamSize    int
	executor    executor.Executor
	logger      logger.Logger
}

type fasterOutput struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func newFaster(cfg *config.Config, exec executor.Executor, log logger.Logger) (Engine, error) {
	return &fasterEngine{
		python:      cfg.Faster.Python,
		model:       cfg.Faster.Model,
		device:      cfg.Faster.Device,
		computeType: cfg.Faster.ComputeType,
		beamSize:    cfg.Faster.BeamSize,
		executor:    exec,
		logger:      log,
	}, nil
}

func (f *fasterEngine) Name() string               { return config.EngineFaster }
func (f *fasterEngine) Diarizes() bool             { return false }
func (f *fasterEngine) Capabilities() Capabilities { return Capabilities{} }

// WriteFasterScript drops the helper into a temp file; the caller removes it.
func WriteFasterScript(dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, "otranscribe-faster-*.py")
	if err != nil {
		return "", fmt.Errorf("create helper script: %w", err)
	}
	defer tmp.Close()
	if _, err := tmp.Write(fasterScript); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write helper script: %w", err)
	}
	return tmp.Name(), nil
}

func (f *fasterEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if req.Format == transcript.FormatDiarizedJSON {
		return nil, errs.Configf("engine %s cannot produce %s", f.Name(), req.Format)
	}

	script, err := WriteFasterScript("")
	if err != nil {
		return nil, err
	}
	defer os.Remove(script)

	args := []string{
		script,
		"--audio", req.AudioPath,
		"--model", f.model,
		"--device", f.device,
		"--compute-type", f.computeType,
		"--beam-size", strconv.Itoa(f.beamSize),
	}
	if req.Language != "" && req.Language != "auto" {
		args = append(args, "--language", req.Language)
	}

	f.logger.Debug(ctx, "Running faster-whisper (%s, %s/%s) on %s", f.model, f.device, f.computeType, req.AudioPath)
	stdout, err := f.executor.Execute(ctx, f.python, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if missingBinary(err) {
			return nil, errs.Configf("cannot run %s: %v (see otranscribe doctor)", f.python, err)
		}
		return nil, &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("faster-whisper: %w", err)}
	}

	var out fasterOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &out); err != nil {
		return nil, &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("parse helper output: %w", err)}
	}

	tr := &transcript.Transcript{Language: out.Language}
	for _, s := range out.Segments {
		tr.Items = append(tr.Items, transcript.Item{Start: s.Start, End: s.End, Text: s.Text})
	}
	return offlineResult(tr, req.Format)
}
