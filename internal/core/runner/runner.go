// Package runner executes an emitted entry file as a child process.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	domainerrors "modshift/internal/core/errors"
)

// Runner spawns Binary with Args, the script and its arguments. Standard
// streams default to the parent's.
type Runner struct {
	Binary string
	Args   []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func New(binary string, args []string) *Runner {
	return &Runner{Binary: binary, Args: args}
}

// Run waits for the child and returns its exit code. A child that exits
// non-zero is not an error; failing to start it is.
func (r *Runner) Run(ctx context.Context, script string, args []string) (int, error) {
	argv := make([]string, 0, len(r.Args)+1+len(args))
	argv = append(argv, r.Args...)
	argv = append(argv, script)
	argv = append(argv, args...)

	cmd := exec.CommandContext(ctx, r.Binary, argv...)
	cmd.Stdin = orReader(r.Stdin, os.Stdin)
	cmd.Stdout = orWriter(r.Stdout, os.Stdout)
	cmd.Stderr = orWriter(r.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	wrapped := domainerrors.Wrap(err, domainerrors.CodeInternal, "run child process")
	return 1, domainerrors.AddContext(wrapped, domainerrors.CtxPath, script)
}

func orReader(r io.Reader, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return fallback
}

func orWriter(w io.Writer, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
