// Package doctor checks that the tools and credentials an engine needs are
// in place.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/engine"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

// Check is the result of one probe.
type Check struct {
	Name    string
	OK      bool
	Message string
	Fix     string
}

// Doctor probes the environment for one engine.
type Doctor struct {
	cfg      *config.Config
	executor executor.Executor
}

func New(cfg *config.Config, exec executor.Executor) *Doctor {
	return &Doctor{cfg: cfg, executor: exec}
}

// Run returns the checks for engineName, or for the configured engine when
// engineName is empty.
func (d *Doctor) Run(ctx context.Context, engineName string) ([]Check, error) {
	if engineName == "" {
		engineName = d.cfg.Engine
	}
	checks := []Check{d.binary("ffmpeg", d.cfg.FFmpeg.BinaryPath,
		"install ffmpeg (apt install ffmpeg, brew install ffmpeg) or set ffmpeg.binary_path")}

	switch engineName {
	case config.EngineOpenAI:
		checks = append(checks, d.apiKey())
	case config.EngineLocal:
		checks = append(checks,
			d.binary("whisper.cpp", d.cfg.Whisper.BinaryPath,
				"build whisper.cpp and put whisper-cli on PATH, or set whisper.binary_path"),
			d.whisperModel())
	case config.EngineFaster:
		checks = append(checks, d.fasterWhisper(ctx))
	default:
		return nil, errs.Configf("unknown engine %q (want one of %v)", engineName, engine.Names())
	}
	return checks, nil
}

func (d *Doctor) binary(name, bin, fix string) Check {
	path, err := d.executor.LookPath(bin)
	if err != nil {
		return Check{Name: name, Message: fmt.Sprintf("%s not found", bin), Fix: fix}
	}
	return Check{Name: name, OK: true, Message: path}
}

func (d *Doctor) apiKey() Check {
	c := Check{Name: "OPENAI_API_KEY"}
	if d.cfg.OpenAI.APIKey == "" {
		c.Message = "not set"
		c.Fix = "export OPENAI_API_KEY=... or add it to .env"
		return c
	}
	c.OK = true
	c.Message = "set"
	return c
}

func (d *Doctor) whisperModel() Check {
	path := engine.WhisperModelPath(d.cfg.Whisper)
	c := Check{Name: "whisper.cpp model", Message: path}
	if _, err := os.Stat(path); err != nil {
		c.Message = fmt.Sprintf("%s missing", path)
		c.Fix = fmt.Sprintf("download it with whisper.cpp's models/download-ggml-model.sh %s into %s", d.cfg.Whisper.Model, d.cfg.Whisper.ModelsDir)
		return c
	}
	c.OK = true
	return c
}

func (d *Doctor) fasterWhisper(ctx context.Context) Check {
	c := Check{Name: "faster-whisper"}
	python, err := d.executor.LookPath(d.cfg.Faster.Python)
	if err != nil {
		c.Message = fmt.Sprintf("%s not found", d.cfg.Faster.Python)
		c.Fix = "install Python 3 or set faster.python"
		return c
	}
	script, err := engine.WriteFasterScript("")
	if err != nil {
		c.Message = err.Error()
		return c
	}
	defer os.Remove(script)

	if _, err := d.executor.Execute(ctx, python, script, "--check"); err != nil {
		c.Message = fmt.Sprintf("%s cannot import faster_whisper", python)
		c.Fix = fmt.Sprintf("%s -m pip install faster-whisper", python)
		return c
	}
	c.OK = true
	c.Message = python
	return c
}

// Report prints the checks and returns how many failed.
func Report(w io.Writer, checks []Check) int {
	failed := 0
	for _, c := range checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
			failed++
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, c.Name, c.Message)
		if !c.OK && c.Fix != "" {
			fmt.Fprintf(w, "    fix: %s\n", c.Fix)
		}
	}
	return failed
}
