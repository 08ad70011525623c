package watcher

import (
	"context"
	"time"
)

// Watcher defines the interface for file system monitoring
type Watcher interface {
	// Start blocks until ctx is done, then waits for running handlers.
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// Options tune which files are handled and how many at once.
type Options struct {
	MaxConcurrent int
	// Match selects the files to handle. Nil accepts every file.
	Match func(path string) bool
	// Settle is how long a file's size must stay unchanged before it is
	// handed over.
	Settle time.Duration
	// ScanExisting also handles matching files already in the directory.
	ScanExisting bool
}
