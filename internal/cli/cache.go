package cli

import (
	"fmt"

	"github.com/otranscribe/otranscribe/internal/cache"
)

type CacheCMD struct {
	Clear CacheClearCMD `cmd:"" help:"Remove every cached result"`
}

type CacheClearCMD struct {
	CacheDir *string `name:"cache-dir" help:"Result cache directory"`
}

func (c *CacheClearCMD) Run(app *App) error {
	cfg, log, err := app.load()
	if err != nil {
		return err
	}
	set(&cfg.Cache.Dir, c.CacheDir)

	n, err := cache.New(cfg.Cache.Dir, log).Clear()
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(app.Stdout, "Removed %d cached result(s) from %s\n", n, cfg.Cache.Dir)
	return nil
}
