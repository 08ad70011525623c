package engine

import (
	"sort"

	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

type factory func(cfg *config.Config, exec executor.Executor, log logger.Logger) (Engine, error)

var registry = map[string]factory{
	config.EngineOpenAI: newOpenAI,
	config.EngineLocal:  newWhisperCPP,
	config.EngineFaster: newFaster,
}

// Names lists the registered engines.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the engine selected by cfg.Engine. Remote engines are wrapped
// with the retry policy from cfg.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) (Engine, error) {
	f, ok := registry[cfg.Engine]
	if !ok {
		return nil, errs.Configf("unknown engine %q (want one of %v)", cfg.Engine, Names())
	}
	e, err := f(cfg, exec, log)
	if err != nil {
		return nil, err
	}
	if cfg.Engine == config.EngineOpenAI && cfg.OpenAI.MaxRetries > 0 {
		e = WithRetry(e, RetryOptions{MaxRetries: cfg.OpenAI.MaxRetries}, log)
	}
	return e, nil
}
