package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

type fakeExecutor struct {
	name string
	args []string
	run  func(args []string) (string, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	f.name, f.args = name, args
	return f.run(args)
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func (f *fakeExecutor) LookPath(name string) (string, error) { return name, nil }

func argAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openAIConfig(url string) *config.Config {
	cfg := config.Defaults()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = url
	cfg.OpenAI.MaxRetries = 0
	return &cfg
}

func TestOpenAITranscribe(t *testing.T) {
	const payload = `{"text":"Olá. Tudo bem?","segments":[{"start":0,"end":1.2,"text":"Olá.","speaker":"A"},{"start":1.4,"end":2.5,"text":"Tudo bem?","speaker":"B"}]}`

	var form map[string]string
	var fileName, fileType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		fh := r.MultipartForm.File["file"][0]
		fileName, fileType = fh.Filename, fh.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	e, err := newOpenAI(openAIConfig(srv.URL+"/v1"), nil, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Transcribe(context.Background(), Request{
		AudioPath: writeAudio(t, "meeting.m4a"),
		Language:  "pt",
		Format:    transcript.FormatDiarizedJSON,
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if string(res.Payload) != payload {
		t.Errorf("Payload = %s, want verbatim response", res.Payload)
	}
	if len(res.Transcript.Items) != 2 || res.Transcript.Items[1].Speaker != "B" {
		t.Errorf("Transcript = %+v", res.Transcript)
	}
	if form["model"] != "gpt-4o-transcribe-diarize" || form["response_format"] != "diarized_json" ||
		form["language"] != "pt" || form["chunking_strategy"] != "auto" {
		t.Errorf("form fields = %v", form)
	}
	if fileName != "meeting.m4a" || fileType != "audio/mp4" {
		t.Errorf("file part = %s (%s)", fileName, fileType)
	}
	if !e.Diarizes() || !e.Capabilities().AcceptsMedia {
		t.Errorf("capabilities = %+v diarizes=%v", e.Capabilities(), e.Diarizes())
	}
}

func TestOpenAIStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{401, func(err error) bool { var e *errs.AuthError; return errors.As(err, &e) }},
		{403, func(err error) bool { var e *errs.AuthError; return errors.As(err, &e) }},
		{429, func(err error) bool { var e *errs.RateLimitError; return errors.As(err, &e) }},
		{503, func(err error) bool { var e *errs.UnavailableError; return errors.As(err, &e) }},
		{400, func(err error) bool { var e *errs.RecognitionError; return errors.As(err, &e) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer srv.Close()

			e, _ := newOpenAI(openAIConfig(srv.URL), nil, logger.NewNop())
			_, err := e.Transcribe(context.Background(), Request{AudioPath: writeAudio(t, "a.wav"), Format: transcript.FormatJSON})
			if !tt.check(err) {
				t.Errorf("status %d gave %T: %v", tt.status, err, err)
			}
		})
	}
}

func TestOpenAIMakesOneRequestPerCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	e, _ := newOpenAI(openAIConfig(srv.URL), nil, logger.NewNop())
	_, err := e.Transcribe(context.Background(), Request{AudioPath: writeAudio(t, "a.wav"), Format: transcript.FormatJSON})

	var ue *errs.UnavailableError
	if !errors.As(err, &ue) || ue.Status != http.StatusServiceUnavailable {
		t.Errorf("Transcribe() error = %v, want UnavailableError with status 503", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestOpenAIChunkingStrategy(t *testing.T) {
	tests := []struct {
		strategy string
		wantErr  bool
	}{
		{"auto", false},
		{"server_vad", false},
		{"", false},
		{"sliding", true},
	}
	for _, tt := range tests {
		cfg := openAIConfig("http://127.0.0.1:1")
		cfg.OpenAI.ChunkingStrategy = tt.strategy
		_, err := newOpenAI(cfg, nil, logger.NewNop())
		if (err != nil) != tt.wantErr {
			t.Errorf("newOpenAI(%q) error = %v, wantErr %v", tt.strategy, err, tt.wantErr)
		}
		if err != nil && !errs.IsConfiguration(err) {
			t.Errorf("newOpenAI(%q) error = %T, want ConfigurationError", tt.strategy, err)
		}
	}
}

func TestOpenAIUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>proxy error</html>")
	}))
	defer srv.Close()

	e, _ := newOpenAI(openAIConfig(srv.URL), nil, logger.NewNop())
	_, err := e.Transcribe(context.Background(), Request{AudioPath: writeAudio(t, "a.wav"), Format: transcript.FormatJSON})
	var re *errs.RecognitionError
	if !errors.As(err, &re) {
		t.Errorf("Transcribe() error = %v, want RecognitionError", err)
	}
}

func TestOpenAIRawSubtitleFormat(t *testing.T) {
	const vtt = "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhi\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, vtt)
	}))
	defer srv.Close()

	e, _ := newOpenAI(openAIConfig(srv.URL), nil, logger.NewNop())
	res, err := e.Transcribe(context.Background(), Request{AudioPath: writeAudio(t, "a.mp3"), Format: transcript.FormatVTT})
	if err != nil {
		t.Fatal(err)
	}
	if string(res.Payload) != vtt || res.Transcript != nil {
		t.Errorf("Result = %+v", res)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.OpenAI.APIKey = ""
	if _, err := New(&cfg, nil, logger.NewNop()); !errs.IsConfiguration(err) {
		t.Errorf("New() error = %v, want ConfigurationError", err)
	}
}

func TestNewUnknownEngine(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine = "vosk"
	if _, err := New(&cfg, nil, logger.NewNop()); !errs.IsConfiguration(err) {
		t.Errorf("New() error = %v, want ConfigurationError", err)
	}
	if got := strings.Join(Names(), ","); got != "faster,local,openai" {
		t.Errorf("Names() = %s", got)
	}
}

func TestWhisperCPPTranscribe(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine = config.EngineLocal
	cfg.Whisper.ModelsDir = "/models"
	cfg.Whisper.Model = "small"

	fe := &fakeExecutor{run: func(args []string) (string, error) {
		out := argAfter(args, "-of") + ".json"
		body := `{"result":{"language":"pt"},"transcription":[
			{"offsets":{"from":0,"to":1500},"text":" bom dia"},
			{"offsets":{"from":1500,"to":3200},"text":" a todos "}]}`
		return "", os.WriteFile(out, []byte(body), 0o644)
	}}
	e, err := New(&cfg, fe, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	wav := writeAudio(t, "talk.wav")
	res, err := e.Transcribe(context.Background(), Request{AudioPath: wav, Language: "pt", Format: transcript.FormatSRT})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if fe.name != "whisper-cli" || argAfter(fe.args, "-m") != "/models/ggml-small.bin" || argAfter(fe.args, "-l") != "pt" {
		t.Errorf("command = %s %v", fe.name, fe.args)
	}
	items := res.Transcript.Items
	if len(items) != 2 || items[1].Start != 1.5 || items[1].End != 3.2 || items[1].Text != "a todos" || items[0].Speaker != "Speaker 0" {
		t.Errorf("Items = %+v", items)
	}
	if !strings.HasPrefix(string(res.Payload), "1\n00:00:00,000 --> 00:00:01,500\nbom dia") {
		t.Errorf("Payload = %q", res.Payload)
	}
	if _, err := os.Stat(argAfter(fe.args, "-of") + ".json"); !os.IsNotExist(err) {
		t.Error("whisper.cpp output file not removed")
	}
}

func TestOfflineEnginesRejectDiarizedJSON(t *testing.T) {
	for _, name := range []string{config.EngineLocal, config.EngineFaster} {
		cfg := config.Defaults()
		cfg.Engine = name
		fe := &fakeExecutor{run: func([]string) (string, error) {
			t.Error("engine ran despite unsupported format")
			return "", nil
		}}
		e, _ := New(&cfg, fe, logger.NewNop())
		_, err := e.Transcribe(context.Background(), Request{AudioPath: "x.wav", Format: transcript.FormatDiarizedJSON})
		if !errs.IsConfiguration(err) {
			t.Errorf("%s: error = %v, want ConfigurationError", name, err)
		}
	}
}

func TestFasterTranscribe(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine = config.EngineFaster
	cfg.Faster.Device = "cpu"

	var script string
	fe := &fakeExecutor{run: func(args []string) (string, error) {
		script = args[0]
		data, err := os.ReadFile(script)
		if err != nil || !strings.Contains(string(data), "faster_whisper") {
			t.Errorf("helper script not written: %v", err)
		}
		return `{"language":"en","duration":4.0,"segments":[{"start":0.0,"end":2.0,"text":" um hello"}]}` + "\n", nil
	}}
	e, _ := New(&cfg, fe, logger.NewNop())
	res, err := e.Transcribe(context.Background(), Request{AudioPath: "in.wav", Language: "en", Format: transcript.FormatJSON})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if fe.name != "python3" || argAfter(fe.args, "--device") != "cpu" || argAfter(fe.args, "--compute-type") != "int8" {
		t.Errorf("command = %s %v", fe.name, fe.args)
	}
	if res.Transcript.Language != "en" || res.Transcript.Items[0].Speaker != "Speaker 0" {
		t.Errorf("Transcript = %+v", res.Transcript)
	}
	if _, err := os.Stat(script); !os.IsNotExist(err) {
		t.Error("helper script not removed")
	}
}

func TestFasterRecognitionError(t *testing.T) {
	cfg := config.Defaults()
	cfg.Engine = config.EngineFaster
	fe := &fakeExecutor{run: func([]string) (string, error) {
		return "", &executor.CommandError{Name: "python3", Err: errors.New("exit status 4"), Stderr: "failed to load model"}
	}}
	e, _ := New(&cfg, fe, logger.NewNop())
	_, err := e.Transcribe(context.Background(), Request{AudioPath: "in.wav", Format: transcript.FormatJSON})
	var re *errs.RecognitionError
	if !errors.As(err, &re) {
		t.Errorf("Transcribe() error = %v, want RecognitionError", err)
	}
}

type scriptedEngine struct {
	errs  []error
	calls int
}

func (s *scriptedEngine) Name() string               { return "scripted" }
func (s *scriptedEngine) Diarizes() bool             { return true }
func (s *scriptedEngine) Capabilities() Capabilities { return Capabilities{} }

func (s *scriptedEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return &Result{Payload: []byte("ok")}, nil
}

func fastRetry(e Engine, max int) Engine {
	return WithRetry(e, RetryOptions{MaxRetries: max, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}, logger.NewNop())
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	inner := &scriptedEngine{errs: []error{&errs.RateLimitError{Status: 429}, &errs.UnavailableError{Status: 502, Err: errors.New("bad gateway")}}}
	res, err := fastRetry(inner, 3).Transcribe(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if string(res.Payload) != "ok" || inner.calls != 3 {
		t.Errorf("calls = %d, payload = %s", inner.calls, res.Payload)
	}
}

func TestRetryStopsOnAuthError(t *testing.T) {
	inner := &scriptedEngine{errs: []error{&errs.AuthError{Status: 401}}}
	_, err := fastRetry(inner, 5).Transcribe(context.Background(), Request{})
	var ae *errs.AuthError
	if !errors.As(err, &ae) {
		t.Errorf("Transcribe() error = %v, want AuthError", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryExhaustion(t *testing.T) {
	rl := &errs.RateLimitError{Status: 429}
	inner := &scriptedEngine{errs: []error{rl, rl, rl, rl, rl}}
	_, err := fastRetry(inner, 2).Transcribe(context.Background(), Request{})

	var re *errs.RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("Transcribe() error = %v, want RetryExhaustedError", err)
	}
	if re.Attempts != 3 || inner.calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", re.Attempts, inner.calls)
	}
	if !errs.Retryable(re.Err) {
		t.Errorf("wrapped error = %v", re.Err)
	}
}

func TestRetryDelegatesMetadata(t *testing.T) {
	e := fastRetry(&scriptedEngine{}, 1)
	if e.Name() != "scripted" || !e.Diarizes() {
		t.Errorf("decorator hides inner engine: %s %v", e.Name(), e.Diarizes())
	}
}
