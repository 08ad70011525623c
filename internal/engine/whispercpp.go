package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

// whisperCPPEngine runs the whisper.cpp CLI on a normalised WAV.
type whisperCPPEngine struct {
	binary    string
	modelPath string
	threads   int
	executor  executor.Executor
	logger    logger.Logger
}

// whisper.cpp -oj output
type whisperCPPOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func newWhisperCPP(cfg *config.Config, exec executor.Executor, log logger.Logger) (Engine, error) {
	return &whisperCPPEngine{
		binary:    cfg.Whisper.BinaryPath,
		modelPath: WhisperModelPath(cfg.Whisper),
		threads:   cfg.Whisper.Threads,
		executor:  exec,
		logger:    log,
	}, nil
}

// WhisperModelPath resolves the ggml model file for the configured model.
func WhisperModelPath(c config.WhisperConfig) string {
	if c.ModelPath != "" {
		return c.ModelPath
	}
	return filepath.Join(c.ModelsDir, "ggml-"+c.Model+".bin")
}

func (w *whisperCPPEngine) Name() string               { return config.EngineLocal }
func (w *whisperCPPEngine) Diarizes() bool             { return false }
func (w *whisperCPPEngine) Capabilities() Capabilities { return Capabilities{} }

func (w *whisperCPPEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	if req.Format == transcript.FormatDiarizedJSON {
		return nil, errs.Configf("engine %s cannot produce %s", w.Name(), req.Format)
	}

	// whisper.cpp appends .json to the output prefix
	prefix := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath)) + "_whisper"
	outPath := prefix + ".json"
	defer os.Remove(outPath)

	// -oj: JSON output with millisecond offsets, -of: output prefix
	args := []string{
		"-m", w.modelPath,
		"-f", req.AudioPath,
		"-oj",
		"-of", prefix,
		"-np",
	}
	if req.Language != "" {
		args = append(args, "-l", req.Language)
	}
	if w.threads > 0 {
		args = append(args, "-t", strconv.Itoa(w.threads))
	}

	w.logger.Debug(ctx, "Running whisper.cpp on %s", req.AudioPath)
	if _, err := w.executor.Execute(ctx, w.binary, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if missingBinary(err) {
			return nil, errs.Configf("cannot run %s: %v (see otranscribe doctor)", w.binary, err)
		}
		return nil, &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("whisper.cpp: %w", err)}
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("read whisper.cpp output: %w", err)}
	}
	var out whisperCPPOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("parse whisper.cpp output: %w", err)}
	}

	tr := &transcript.Transcript{Language: out.Result.Language}
	if tr.Language == "" {
		tr.Language = req.Language
	}
	for _, seg := range out.Transcription {
		tr.Items = append(tr.Items, transcript.Item{
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
			Text:  seg.Text,
		})
	}
	return offlineResult(tr, req.Format)
}
