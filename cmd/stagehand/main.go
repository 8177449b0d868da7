package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/stagehand/internal/cmd"
	"github.com/felixgeelhaar/stagehand/internal/exitcode"
	"github.com/felixgeelhaar/stagehand/internal/ux"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nOperation cancelled by user")
			exitcode.Exit(exitcode.Interrupted)
		}

		fmt.Fprint(os.Stderr, ux.RenderError(os.Stderr, err, os.Getenv("NO_COLOR") != ""))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
