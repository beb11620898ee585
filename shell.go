package fplugin

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Exec waits for output pipes after the shell is
// killed, since grandchildren outside the process group may hold them open.
const waitDelay = 2 * time.Second

// ExecResult is the outcome of one shell command line.
type ExecResult struct {
	Line     string
	Output   []byte
	ExitCode int
	Duration time.Duration
}

// Exec runs line through the platform shell in dir, bounded by
// shell.timeout. A command that runs and exits nonzero is not an error; its
// status is in ExitCode. On timeout the command's process group is killed
// and the error wraps ErrTimeout. Cancelling ctx returns ctx.Err().
func (e *Engine) Exec(ctx context.Context, dir, line string) (*ExecResult, error) {
	timeout := e.cfg.Shell.Timeout
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	program, flag := e.shell()
	cmd := exec.CommandContext(runCtx, program, flag, line)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	res := &ExecResult{Line: line, Output: output, Duration: time.Since(start)}
	e.log.Debug("shell command finished",
		zap.String("line", line),
		zap.String("dir", dir),
		zap.Duration("duration", res.Duration),
		zap.Error(err),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, fmt.Errorf("%w after %s: %s", ErrTimeout, timeout, line)
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("run %q: %w", line, err)
	}
	return res, nil
}

func (e *Engine) shell() (program, flag string) {
	program, flag = defaultShell()
	if e.cfg.Shell.Program != "" {
		program = e.cfg.Shell.Program
		flag = e.cfg.Shell.Flag
	}
	return program, flag
}

// RunShell is a read-eval-print loop over shell commands run in dir. It
// prompts with "<dir> $ " and stops on empty input or "exit". A command that
// times out, fails to start or exits nonzero is reported and the loop goes
// on. Only a prompt error or a cancelled ctx ends the loop with an error.
func (e *Engine) RunShell(ctx context.Context, dir string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		answer, err := e.host.Prompt(dir + " $ ")
		if err != nil {
			return err
		}
		line := strings.TrimSpace(answer)
		if line == "" || line == "exit" {
			return nil
		}
		if err := e.runLine(ctx, dir, line); err != nil {
			return err
		}
	}
}

// runLine runs line and displays its outcome. It returns an error only when
// ctx is done.
func (e *Engine) runLine(ctx context.Context, dir, line string) error {
	res, err := e.Exec(ctx, dir, line)
	if out := strings.TrimRight(string(res.Output), "\n"); out != "" {
		e.host.Display(out)
	}
	switch {
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		e.host.Display(err.Error())
	case res.ExitCode != 0:
		e.host.Display(fmt.Sprintf("exit status %d", res.ExitCode))
	}
	return nil
}
