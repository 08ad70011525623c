package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/transcript"
)

const entryExt = ".json"

type fileStore struct {
	dir    string
	logger logger.Logger
}

func (s *fileStore) Enabled() bool { return true }

func (s *fileStore) path(key Key) string {
	return filepath.Join(s.dir, string(key)+entryExt)
}

func (s *fileStore) Lookup(key Key) (*Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		// A foreign or damaged file is treated as a miss and overwritten later.
		s.logger.Warn(context.Background(), "Ignoring unreadable cache entry %s", s.path(key))
		return nil, nil
	}
	return &e, nil
}

func (s *fileStore) Store(key Key, format transcript.Format, payload []byte) error {
	e := Entry{Key: key, Format: format, Payload: payload, CreatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, "."+string(key)+".*.tmp")
	if err != nil {
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return &errs.CacheWriteError{Key: string(key), Err: err}
	}

	s.logger.Debug(context.Background(), "Cached %d bytes under %s", len(payload), key)
	return nil
}

func (s *fileStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, entryExt) && !strings.HasSuffix(name, ".tmp") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		if strings.HasSuffix(name, entryExt) {
			removed++
		}
	}
	return removed, nil
}

type disabledStore struct{}

func (disabledStore) Enabled() bool                              { return false }
func (disabledStore) Lookup(Key) (*Entry, error)                 { return nil, nil }
func (disabledStore) Store(Key, transcript.Format, []byte) error { return nil }
func (disabledStore) Clear() (int, error)                        { return 0, nil }
