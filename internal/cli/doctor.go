package cli

import (
	"fmt"

	"github.com/otranscribe/otranscribe/internal/doctor"
	"github.com/otranscribe/otranscribe/internal/errs"
	"github.com/otranscribe/otranscribe/pkg/executor"
)

type DoctorCMD struct {
	Engine string `help:"Engine to check (default: configured engine)"`
}

func (d *DoctorCMD) Run(app *App) error {
	cfg, _, err := app.load()
	if err != nil {
		return err
	}
	checks, err := doctor.New(cfg, executor.New()).Run(app.Ctx, d.Engine)
	if err != nil {
		return errs.At(errs.StageConfig, err)
	}
	if failed := doctor.Report(app.Stdout, checks); failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
