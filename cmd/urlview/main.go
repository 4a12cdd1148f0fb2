// Package main provides urlview, a tool to read and write a shared address
// one part at a time.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaxron/urlview/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(ctx, os.Stdout, os.Stderr, os.Args)

	stop()
	os.Exit(exitCode)
}
