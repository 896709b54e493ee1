package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"datagate/cmd/server/cmd"
)

// main only owns process signals. Commands and wiring live in cmd.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
