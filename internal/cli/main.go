package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/otranscribe/otranscribe/internal/errs"
)

const description = `Transcribe audio and video with OpenAI, whisper.cpp or faster-whisper.

Settings come from the YAML config (--config), the environment (.env is read
for OPENAI_API_KEY and GEMINI_API_KEYS) and flags, in increasing precedence.
`

// Main parses args, runs the selected command and returns the exit status.
func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var c CLI
	app := &App{Globals: &c.Globals, Ctx: ctx, Stdin: stdin, Stdout: stdout, Stderr: stderr}

	parser, err := kong.New(&c,
		kong.Name("otranscribe"),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Bind(app),
	)
	if err != nil {
		fmt.Fprintln(stderr, ErrorLine(err))
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		err = errs.At(errs.StageConfig, errs.Configf("%v", err))
		fmt.Fprintln(stderr, ErrorLine(err))
		return errs.ExitCode(err)
	}
	if err := kctx.Run(); err != nil {
		fmt.Fprintln(stderr, ErrorLine(err))
		return errs.ExitCode(err)
	}
	return 0
}
