package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/wallyup/internal/cli"
	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/install"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if ctx.Err() != nil {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}

// exitCode maps failures to process exit codes. A failed install hook
// reports its own status.
func exitCode(err error) int {
	if errors.Is(err, errors.ErrCodeInstallFailed) {
		if code := install.ExitStatus(err); code > 0 {
			return code
		}
	}
	return 1
}
