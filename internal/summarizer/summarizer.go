package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/otranscribe/otranscribe/internal/render"
)

const summarySuffix = "_summary"

const summaryPrompt = `You are an assistant that writes meeting notes from timestamped transcripts.
Write the notes in the language the transcript is written in.

Requirements:
- Start with a one-sentence overview of the meeting
- List every topic discussed, in the order it came up, with the speakers involved
- Record decisions and action items (who, what, when) in their own sections
- Keep technical terms as spoken
- Use markdown: headings, bullet points, bold for key terms

Transcript:
---
%s
---`

// SummarizeAll reads all transcripts from inputDir, calls Gemini for each,
// and writes individual summaries into destDir.
func (s *implSummarizer) SummarizeAll(ctx context.Context, inputDir, destDir string) (Report, error) {
	var report Report
	files, err := discoverTranscripts(inputDir)
	if err != nil {
		return report, fmt.Errorf("discover transcripts: %w", err)
	}

	if len(files) == 0 {
		s.logger.Info(ctx, "No transcripts found in %s", inputDir)
		return report, nil
	}
	s.logger.Info(ctx, "Found %d transcripts to summarize", len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := stem(path)
		if _, err := os.Stat(summaryPath(destDir, name, ".md")); err == nil {
			s.logger.Debug(ctx, "Summary for %s exists, skipping", name)
			report.Skipped++
			continue
		}

		s.logger.Info(ctx, "[%d/%d] Summarizing: %s", i+1, len(files), name)
		mdPath, err := s.Summarize(ctx, path, destDir)
		if err != nil {
			s.logger.Error(ctx, "Failed to summarize %s: %v", name, err)
			report.Failed++
			continue
		}
		s.logger.Info(ctx, "[DONE] %s -> %s", name, mdPath)
		report.Done++
	}

	s.logger.Info(ctx, "Summary complete: %d done, %d skipped, %d failed", report.Done, report.Skipped, report.Failed)
	return report, nil
}

func (s *implSummarizer) Summarize(ctx context.Context, transcriptPath, destDir string) (string, error) {
	content, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return "", fmt.Errorf("%s is empty", transcriptPath)
	}

	summary, err := s.callGemini(ctx, string(content))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create dest dir: %w", err)
	}
	name := stem(transcriptPath)
	md := fmt.Sprintf("# %s\n\n_%s_\n\n%s\n",
		name,
		time.Now().Format("2006-01-02 15:04"),
		strings.TrimSpace(summary),
	)

	mdPath := summaryPath(destDir, name, ".md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	docxPath := summaryPath(destDir, name, ".docx")
	if err := render.MarkdownToDocx(name, md, docxPath); err != nil {
		s.logger.Warn(ctx, "Failed to write %s: %v", docxPath, err)
	}
	return mdPath, nil
}

// callGemini sends the transcript to Gemini and returns the summary text.
// Rotates API keys on 429 / quota errors.
func (s *implSummarizer) callGemini(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(summaryPrompt, transcript)

	var lastErr error
	for range len(s.apiKeys) {
		cc := &genai.ClientConfig{
			APIKey:  s.apiKeys[s.currentKey],
			Backend: genai.BackendGeminiAPI,
		}
		if s.baseURL != "" {
			cc.HTTPOptions.BaseURL = s.baseURL
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			s.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
		if err != nil {
			if rateLimited(err) {
				s.logger.Warn(ctx, "Key %d rate limited, rotating...", s.currentKey+1)
				s.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if text := result.Text(); text != "" {
			return text, nil
		}
		return "", errors.New("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func rateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func (s *implSummarizer) rotateKey() {
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
}

// discoverTranscripts lists final transcripts, leaving out earlier summaries.
func discoverTranscripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		if strings.HasSuffix(stem(e.Name()), summarySuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func summaryPath(dir, name, ext string) string {
	return filepath.Join(dir, name+summarySuffix+ext)
}
