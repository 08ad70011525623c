package processor

import (
	"context"
	"os"
)

// cleanupTempDir removes the run's scratch directory unless temp files are kept.
func (p *implProcessor) cleanupTempDir(ctx context.Context, dir string) {
	if p.cfg.Paths.KeepTemp {
		p.logger.Info(ctx, "Keeping temp files in %s", dir)
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn(ctx, "Failed to cleanup temp dir %s: %v", dir, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp dir: %s", dir)
	}
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implProcessor) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
