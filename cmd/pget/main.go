package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Build information, set at build time via -ldflags
var (
	Version = "v0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultDeps())
	stop()
	os.Exit(code)
}
