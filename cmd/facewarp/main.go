package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facewarp/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "facewarp: %v\n", err)
		stop()
		os.Exit(1)
	}
}
