package watcher

import (
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/fsnotify/fsnotify"

	"github.com/otranscribe/otranscribe/internal/logger"
)

const defaultSettle = 500 * time.Millisecond

// New creates a new Watcher instance with concurrency control
func New(inputDir string, handler EventHandler, log logger.Logger, opts Options) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	// Default to 2 concurrent if not specified
	opts.MaxConcurrent = max(opts.MaxConcurrent, 0)
	opts.Settle = max(opts.Settle, 0)
	if err := mergo.Merge(&opts, Options{MaxConcurrent: 2, Settle: defaultSettle}); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watcher options: %w", err)
	}
	if opts.Match == nil {
		opts.Match = func(string) bool { return true }
	}

	return &implWatcher{
		inputDir:  inputDir,
		handler:   handler,
		logger:    log,
		watcher:   watcher,
		opts:      opts,
		semaphore: make(chan struct{}, opts.MaxConcurrent),
		inFlight:  map[string]bool{},
	}, nil
}
