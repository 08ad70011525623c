package processor

import (
	"io"

	"github.com/otranscribe/otranscribe/internal/cache"
	"github.com/otranscribe/otranscribe/internal/config"
	"github.com/otranscribe/otranscribe/internal/engine"
	"github.com/otranscribe/otranscribe/internal/logger"
	"github.com/otranscribe/otranscribe/internal/media"
	"github.com/otranscribe/otranscribe/internal/render"
)

// Deps are the collaborators a Processor drives.
type Deps struct {
	Engine     engine.Engine
	Normalizer media.Normalizer
	Cache      cache.Store
	// Renderer may be nil when every request sets SkipOutput.
	Renderer render.Renderer
	Logger   logger.Logger
	// Progress receives the chunk progress bar. Nil hides it.
	Progress io.Writer
}

type implProcessor struct {
	cfg        *config.Config
	engine     engine.Engine
	normalizer media.Normalizer
	cache      cache.Store
	renderer   render.Renderer
	logger     logger.Logger
	progress   io.Writer
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Deps) Processor {
	store := deps.Cache
	if store == nil {
		store = cache.Disabled()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &implProcessor{
		cfg:        cfg,
		engine:     deps.Engine,
		normalizer: deps.Normalizer,
		cache:      store,
		renderer:   deps.Renderer,
		logger:     log,
		progress:   deps.Progress,
	}
}
