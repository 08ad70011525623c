package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

// maxErrorBody caps how much of an error response ends up in messages.
const maxErrorBody = 2048

var mimeByExt = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

// openAIEngine calls the hosted transcription endpoint through the OpenAI SDK.
// The SDK's own retries are off; WithRetry is the only retry policy.
type openAIEngine struct {
	client    openai.Client
	model     string
	chunking  openai.AudioTranscriptionNewParamsChunkingStrategyUnion
	maxUpload int64
	logger    logger.Logger
}

func newOpenAI(cfg *config.Config, _ executor.Executor, log logger.Logger) (Engine, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errs.Configf("OPENAI_API_KEY is not set (export it, put it in .env, or set openai.api_key)")
	}
	chunking, err := chunkingStrategy(cfg.OpenAI.ChunkingStrategy)
	if err != nil {
		return nil, err
	}
	timeout := cfg.OpenAI.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAI.APIKey),
		option.WithBaseURL(cfg.OpenAI.BaseURL),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	)
	return &openAIEngine{
		client:    client,
		model:     cfg.OpenAI.Model,
		chunking:  chunking,
		maxUpload: cfg.OpenAI.MaxUploadBytes,
		logger:    log,
	}, nil
}

func chunkingStrategy(s string) (openai.AudioTranscriptionNewParamsChunkingStrategyUnion, error) {
	var u openai.AudioTranscriptionNewParamsChunkingStrategyUnion
	switch s {
	case "":
	case "auto":
		u.OfAuto = constant.ValueOf[constant.Auto]()
	case "server_vad":
		u.OfAudioTranscriptionNewsChunkingStrategyVadConfig = &openai.AudioTranscriptionNewParamsChunkingStrategyVadConfig{Type: "server_vad"}
	default:
		return u, errs.Configf("unknown chunking strategy %q (want auto or server_vad)", s)
	}
	return u, nil
}

func (o *openAIEngine) Name() string   { return config.EngineOpenAI }
func (o *openAIEngine) Diarizes() bool { return strings.Contains(o.model, "diarize") }

func (o *openAIEngine) Capabilities() Capabilities {
	return Capabilities{AcceptsMedia: true, MaxUploadBytes: o.maxUpload}
}

func (o *openAIEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(req.AudioPath))]
	if !ok {
		mime = "application/octet-stream"
	}
	params := openai.AudioTranscriptionNewParams{
		File:             openai.File(f, filepath.Base(req.AudioPath), mime),
		Model:            openai.AudioModel(o.model),
		ResponseFormat:   openai.AudioResponseFormat(req.Format),
		ChunkingStrategy: o.chunking,
	}
	if req.Language != "" && req.Language != "auto" {
		params.Language = openai.String(req.Language)
	}

	o.logger.Debug(ctx, "Uploading %s (model %s, format %s)", req.AudioPath, o.model, req.Format)

	// payload bytes are kept verbatim for the cache and raw output
	var payload []byte
	var httpResp *http.Response
	_, err = o.client.Audio.Transcriptions.New(ctx, params,
		option.WithResponseBodyInto(&payload),
		option.WithResponseInto(&httpResp),
	)
	if err != nil {
		return nil, requestError(ctx, err, httpResp)
	}

	res := &Result{Payload: payload, Format: req.Format}
	if req.Format.IsJSON() || req.Format == transcript.FormatText {
		tr, err := transcript.Parse(req.Format, payload)
		if err != nil {
			return nil, &errs.RecognitionError{Chunk: -1, Err: err}
		}
		res.Transcript = tr
	}
	return res, nil
}

// requestError maps a failed SDK call onto the engine error taxonomy.
func requestError(ctx context.Context, err error, resp *http.Response) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Message
		if body == "" {
			body = apiErr.RawJSON()
		}
		return statusError(apiErr.StatusCode, []byte(body))
	}
	// error bodies the SDK could not decode still carry their status
	if resp != nil && resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return statusError(resp.StatusCode, body)
	}
	return &errs.UnavailableError{Err: err}
}

// statusError maps a non-2xx response onto the engine error taxonomy.
func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &errs.AuthError{Status: status, Body: msg}
	case status == http.StatusTooManyRequests:
		return &errs.RateLimitError{Status: status, Body: msg}
	case status >= 500 || status == http.StatusRequestTimeout:
		return &errs.UnavailableError{Status: status, Err: errors.New(msg)}
	default:
		return &errs.RecognitionError{Chunk: -1, Err: fmt.Errorf("status %d: %s", status, msg)}
	}
}
