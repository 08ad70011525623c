package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/otranscribe/otranscribe/internal/cli"
)

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Main(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
