package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/render"
)

// OutputPath is where a run writes its document when no path is given:
// <stem>.<ext> in dir, or next to input when dir is empty.
func OutputPath(input, dir, ext string) string {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, stem+"."+ext)
}

// writeOutput renders into a temp file beside the destination and renames
// it into place, so a failed or cancelled run never leaves a partial file.
func (p *implProcessor) writeOutput(ctx context.Context, req Request, out *Outcome, runID string) (string, error) {
	dest := req.Output
	if dest == "" {
		dest = OutputPath(req.Input, req.OutputDir, p.renderer.Extension())
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errs.At(errs.StageOutput, fmt.Errorf("create output dir: %w", err))
	}

	tmp := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.%s.tmp", filepath.Base(dest), runID[:8]))
	in := render.Input{
		Title:      strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input)),
		Payload:    out.Payload,
		Format:     out.Format,
		Transcript: out.Transcript,
	}
	if err := p.renderer.Write(tmp, in); err != nil {
		p.cleanupTempFile(ctx, tmp)
		return "", errs.At(errs.StageRender, err)
	}
	if err := ctx.Err(); err != nil {
		p.cleanupTempFile(ctx, tmp)
		return "", errs.At(errs.StageOutput, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		p.cleanupTempFile(ctx, tmp)
		return "", errs.At(errs.StageOutput, fmt.Errorf("move output into place: %w", err))
	}
	return dest, nil
}
