package processor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/otranscribe/otranscribe/internal/cache"
	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/engine"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

// Process orchestrates the entire transcription pipeline
func (p *implProcessor) Process(ctx context.Context, req Request) (*Outcome, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)

	if err := p.validate(req); err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}
	format := p.responseFormat()

	p.logger.Info(ctx, "Starting transcription: %s (engine %s, format %s)", req.Input, p.engine.Name(), format)

	out := &Outcome{RunID: runID, Format: format}

	// Step 1: Cache lookup
	key, err := p.cacheKey(req, format)
	if err != nil {
		return nil, errs.At(errs.StageConfig, err)
	}
	if hit := p.lookup(ctx, key, format); hit != nil {
		out.CacheHit = true
		out.Payload = hit.payload
		out.Transcript = hit.transcript
	}

	// Step 2: Normalise, recognise and merge
	if !out.CacheHit {
		asm, err := p.transcribe(ctx, req, format)
		if err != nil {
			return nil, err
		}
		out.Payload, out.Transcript, out.Windows = asm.payload, asm.transcript, asm.windows

		// Step 3: Cache the assembled payload once
		if p.cache.Enabled() {
			if err := p.cache.Store(key, format, out.Payload); err != nil {
				p.logger.Warn(ctx, "Result not cached: %v", err)
			}
		}
	}

	// Step 4: Render and write the document
	if !req.SkipOutput {
		path, err := p.writeOutput(ctx, req, out, runID)
		if err != nil {
			return nil, err
		}
		out.OutputPath = path
	}

	out.Elapsed = time.Since(startTime)
	if out.OutputPath != "" {
		p.logger.Info(ctx, "Output: %s", out.OutputPath)
	}
	p.logger.Info(ctx, "Processing time: %s (cache hit: %t)", out.Elapsed.Round(time.Millisecond), out.CacheHit)
	return out, nil
}

func (p *implProcessor) validate(req Request) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	if p.engine == nil {
		return errs.Configf("no engine configured")
	}
	if p.cfg.Render.Mode == config.RenderRaw &&
		transcript.Format(p.cfg.Render.APIFormat) == transcript.FormatDiarizedJSON && !p.engine.Diarizes() {
		return errs.Configf("engine %s cannot produce %s", p.engine.Name(), transcript.FormatDiarizedJSON)
	}
	if !req.SkipOutput && p.renderer == nil {
		return errs.Configf("no renderer configured")
	}
	info, err := os.Stat(req.Input)
	if err != nil {
		return errs.Configf("input %s: %v", req.Input, err)
	}
	if info.IsDir() {
		return errs.Configf("input %s is a directory", req.Input)
	}
	if req.MaxSeconds < 0 {
		return errs.Configf("sample length must not be negative, got %v", req.MaxSeconds)
	}
	return nil
}

// responseFormat is the payload format requested from the engine. Final
// renders fall back to verbose_json when the remote model cannot diarize.
func (p *implProcessor) responseFormat() transcript.Format {
	f := transcript.Format(p.cfg.ResponseFormat())
	if p.cfg.Render.Mode == config.RenderFinal && f == transcript.FormatDiarizedJSON && !p.engine.Diarizes() {
		return transcript.FormatVerboseJSON
	}
	return f
}

// cacheKey fingerprints the original input and every setting that changes
// the engine payload. Rendering options are not part of it.
func (p *implProcessor) cacheKey(req Request, format transcript.Format) (cache.Key, error) {
	if !p.cache.Enabled() {
		return "", nil
	}
	content, err := cache.ContentHash(req.Input)
	if err != nil {
		return "", fmt.Errorf("fingerprint input: %w", err)
	}
	params := cache.Params{
		Engine:         p.engine.Name(),
		Model:          p.cfg.EngineModel(),
		Language:       p.cfg.Language,
		ChunkSeconds:   p.cfg.Chunking.Seconds,
		OverlapSeconds: p.cfg.Chunking.OverlapSeconds,
		Format:         string(format),
	}
	extra := map[string]string{}
	switch p.cfg.Engine {
	case config.EngineFaster:
		params.Device = p.cfg.Faster.Device
		params.ComputeType = p.cfg.Faster.ComputeType
		extra["beam_size"] = strconv.Itoa(p.cfg.Faster.BeamSize)
	case config.EngineLocal:
		extra["model_path"] = engine.WhisperModelPath(p.cfg.Whisper)
	case config.EngineOpenAI:
		extra["chunking_strategy"] = p.cfg.OpenAI.ChunkingStrategy
	}
	if p.normalizes(req) {
		extra["sample_rate"] = strconv.Itoa(p.cfg.FFmpeg.SampleRate)
	}
	if p.mayChunk(req) {
		extra["merge_tolerance"] = strconv.FormatFloat(p.cfg.Merge.ToleranceSeconds, 'g', -1, 64)
		extra["merge_similarity"] = strconv.FormatFloat(p.cfg.Merge.Similarity, 'g', -1, 64)
	}
	if req.MaxSeconds > 0 {
		extra["max_seconds"] = strconv.FormatFloat(req.MaxSeconds, 'g', -1, 64)
	}
	params.Extra = extra
	return cache.NewKey(content, params), nil
}

// normalizes reports whether the engine will hear ffmpeg output rather than
// the original file.
func (p *implProcessor) normalizes(req Request) bool {
	caps := p.engine.Capabilities()
	return !caps.AcceptsMedia || p.cfg.Chunking.Seconds > 0 || req.MaxSeconds > 0 || p.oversize(req)
}

// mayChunk reports whether the run can be split into merged windows.
func (p *implProcessor) mayChunk(req Request) bool {
	return p.cfg.Chunking.Seconds > 0 || p.oversize(req)
}

func (p *implProcessor) oversize(req Request) bool {
	caps := p.engine.Capabilities()
	return caps.AcceptsMedia && caps.MaxUploadBytes > 0 && fileSize(req.Input) > caps.MaxUploadBytes
}

type cached struct {
	payload    []byte
	transcript *transcript.Transcript
}

// lookup returns a usable cache entry or nil. Unreadable entries count as misses.
func (p *implProcessor) lookup(ctx context.Context, key cache.Key, format transcript.Format) *cached {
	if !p.cache.Enabled() {
		p.logger.Debug(ctx, "Cache disabled")
		return nil
	}
	entry, err := p.cache.Lookup(key)
	if err != nil {
		p.logger.Warn(ctx, "Cache lookup failed, transcribing: %v", err)
		return nil
	}
	if entry == nil || entry.Format != format {
		p.logger.Debug(ctx, "Cache miss: %s", key)
		return nil
	}

	hit := &cached{payload: entry.Payload}
	if parsable(format) {
		tr, err := transcript.Parse(format, entry.Payload)
		if err != nil {
			p.logger.Warn(ctx, "Cached payload %s is unreadable, transcribing: %v", key, err)
			return nil
		}
		hit.transcript = tr
	}
	p.logger.Info(ctx, "Cache hit: %s", key)
	return hit
}

func parsable(f transcript.Format) bool {
	return f.IsJSON() || f == transcript.FormatText
}
