package cache

import (
	"time"

	"github.com/otranscribe/otranscribe/internal/transcript"
)

// Store maps fingerprints to previously produced engine payloads.
type Store interface {
	// Lookup returns the entry for key, or nil when there is none.
	Lookup(key Key) (*Entry, error)
	// Store persists payload under key. A reader never sees a partial entry.
	Store(key Key, format transcript.Format, payload []byte) error
	// Clear removes every entry and reports how many were removed.
	Clear() (int, error)
	// Enabled is false for the bypass store used by --no-cache runs.
	Enabled() bool
}

// Entry is one cached engine result.
type Entry struct {
	Key       Key               `json:"key"`
	Format    transcript.Format `json:"format"`
	Payload   []byte            `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}
