package cache

import (
	"github.com/otranscribe/otranscribe/internal/logger"
)

// DefaultDir is the cache directory used when none is configured.
const DefaultDir = ".otranscribe_cache"

// New returns a file-backed store rooted at dir.
func New(dir string, log logger.Logger) Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &fileStore{dir: dir, logger: log}
}

// Disabled returns a store that never reads or writes.
func Disabled() Store {
	return disabledStore{}
}
