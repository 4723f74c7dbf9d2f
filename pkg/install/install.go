// Package install runs the post-upgrade install hook.
//
// The hook is a shell command line (by default "wally install") that is
// parsed and interpreted in-process, so the same hook string behaves the
// same on every platform without depending on a system shell.
package install

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/matzehuels/wallyup/pkg/errors"
	"github.com/matzehuels/wallyup/pkg/observability"
)

// DefaultCommand installs the dependencies pinned in the manifest.
const DefaultCommand = "wally install"

// Run interprets command in dir. A non-zero exit is reported as
// INSTALL_FAILED carrying the exit status; an empty command does nothing.
func Run(ctx context.Context, command, dir string, stdout, stderr io.Writer) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "install")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse install command")
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create interpreter")
	}

	start := time.Now()
	observability.Install().OnInstallStart(ctx, command)
	err = runner.Run(ctx, prog)
	observability.Install().OnInstallComplete(ctx, command, time.Since(start), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var status interp.ExitStatus
		if stderrors.As(err, &status) {
			return errors.Wrap(errors.ErrCodeInstallFailed, status, "%q", command)
		}
		return errors.Wrap(errors.ErrCodeInstallFailed, err, "%q", command)
	}
	return nil
}

// ExitStatus extracts the hook's exit status from an error returned by Run,
// or -1 when the error did not come from a finished hook.
func ExitStatus(err error) int {
	var status interp.ExitStatus
	if stderrors.As(err, &status) {
		return int(status)
	}
	return -1
}
