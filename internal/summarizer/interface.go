package summarizer

import "context"

// Summarizer turns final transcripts into LLM-written meeting notes.
type Summarizer interface {
	// SummarizeAll summarises every .txt/.md transcript in inputDir that has
	// no summary in destDir yet.
	SummarizeAll(ctx context.Context, inputDir, destDir string) (Report, error)
	// Summarize writes <name>_summary.md and <name>_summary.docx for one
	// transcript and returns the markdown path.
	Summarize(ctx context.Context, transcriptPath, destDir string) (string, error)
}

// Report counts the outcome of SummarizeAll.
type Report struct {
	Done    int
	Skipped int
	Failed  int
}
