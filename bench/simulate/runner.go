package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Invocation is everything needed to start one simulation process.
type Invocation struct {
	Args   []string // Args[0] is the executable
	Env    []string
	Dir    string
	Output io.Writer // receives both stdout and stderr
}

// Runner starts a process and waits for it. A non-nil error means the
// process could not be started or waited on; a process that ran and exited
// non-zero reports its code with a nil error.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (exitCode int, err error)
}

// ExecRunner runs invocations with os/exec. Cancelling ctx kills the process.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv Invocation) (int, error) {
	if len(inv.Args) == 0 {
		return -1, fmt.Errorf("empty command line")
	}
	cmd := exec.CommandContext(ctx, inv.Args[0], inv.Args[1:]...)
	cmd.Env = inv.Env
	cmd.Dir = inv.Dir
	cmd.Stdout = inv.Output
	cmd.Stderr = inv.Output

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
