// Package runner runs external commands either on the host, escaping an
// application sandbox when needed, or inside the current environment.
//
// Commands are argv slices and never go through a shell.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/uuid"

	execout "github.com/mfateev/hostsh/internal/exec"
	"github.com/mfateev/hostsh/internal/sandbox"
)

// Config configures a Runner. Sandboxed is evaluated once at startup, e.g.
// with sandbox.Detect, and never re-read from the environment.
type Config struct {
	Sandboxed bool

	// BridgePrefix is prepended to host commands when Sandboxed is true.
	// Empty means sandbox.DefaultBridgePrefix.
	BridgePrefix []string

	// Logger receives debug traces and background failures.
	// Nil means slog.Default().
	Logger *slog.Logger

	// Diagnostics receives the stderr text of failed commands.
	// Nil means os.Stderr.
	Diagnostics io.Writer

	// Spawner runs RunOnHostThreaded tasks. Nil means GoSpawner.
	Spawner Spawner
}

// Runner executes commands. It holds no mutable state and is safe for
// concurrent use.
type Runner struct {
	sandboxed bool
	bridge    sandbox.HostBridge
	logger    *slog.Logger
	diag      io.Writer
	spawner   Spawner
}

// New creates a Runner from cfg.
func New(cfg Config) *Runner {
	r := &Runner{
		sandboxed: cfg.Sandboxed,
		bridge:    sandbox.NewHostBridge(cfg.Sandboxed, cfg.BridgePrefix),
		logger:    cfg.Logger,
		diag:      cfg.Diagnostics,
		spawner:   cfg.Spawner,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.diag == nil {
		r.diag = os.Stderr
	}
	if r.spawner == nil {
		r.spawner = GoSpawner{}
	}
	return r
}

// IsSandboxed reports whether the runner was configured as running inside a
// sandbox.
func (r *Runner) IsSandboxed() bool {
	return r.sandboxed
}

// HostCommand returns the argv RunOnHost would execute for command.
func (r *Runner) HostCommand(command []string) []string {
	return r.bridge.Wrap(command)
}

// RunOnHost runs command on the host, prefixed with the bridge launcher when
// sandboxed, and returns its stdout with one trailing newline removed.
//
// With captureStderr, stderr is appended to stdout on success, and on a
// non-zero exit the stderr text is returned with a nil error. Callers in that
// mode cannot tell success from failure by the return values.
//
// Without captureStderr, a non-zero exit writes stderr to the diagnostics
// writer and returns a *CommandFailedError.
func (r *Runner) RunOnHost(ctx context.Context, command []string, captureStderr bool, opts ...Option) (string, error) {
	if len(command) == 0 {
		return "", ErrEmptyCommand
	}
	return r.run(ctx, r.bridge.Wrap(command), captureStderr, false, opts)
}

// RunInSandbox runs command as given in the current environment. It behaves
// like RunOnHost except that the bridge prefix is never applied and, when
// quietOnError is set, failed stderr is not written to the diagnostics
// writer.
func (r *Runner) RunInSandbox(ctx context.Context, command []string, captureStderr, quietOnError bool, opts ...Option) (string, error) {
	if len(command) == 0 {
		return "", ErrEmptyCommand
	}
	return r.run(ctx, append([]string(nil), command...), captureStderr, quietOnError, opts)
}

// RunOnHostThreaded runs RunOnHost on a background task and returns
// immediately. On success callback, if non-nil, receives the output. Failures
// and callback panics are logged at error level and end only that task.
func (r *Runner) RunOnHostThreaded(command []string, callback func(output string), captureStderr bool) {
	command = append([]string(nil), command...)
	logger := r.logger.With("task", uuid.New().String()[:8])

	r.spawner.Go(func() {
		output, err := r.RunOnHost(context.Background(), command, captureStderr)
		if err != nil {
			var failed *CommandFailedError
			if errors.As(err, &failed) {
				logger.Error("background command failed",
					"command", failed.Command,
					"status", failed.ExitStatus,
					"stderr", failed.Stderr)
			} else {
				logger.Error("background command failed", "command", command, "error", err)
			}
			return
		}
		if callback == nil {
			return
		}

		defer func() {
			if p := recover(); p != nil {
				logger.Error("background command callback panicked", "command", command, "panic", p)
			}
		}()
		callback(output)
	})
}

// result is the raw outcome of one process invocation.
type result struct {
	stdout     []byte
	stderr     []byte
	exitStatus int
}

func (r *Runner) run(ctx context.Context, argv []string, captureStderr, quietOnError bool, opts []Option) (string, error) {
	r.logger.Debug("running command", "command", argv)

	res, err := invoke(ctx, argv, collectOptions(opts))
	if err != nil {
		return "", err
	}

	if res.exitStatus != 0 {
		stderr := execout.Decode(res.stderr)
		if captureStderr {
			return stderr, nil
		}
		if !quietOnError {
			fmt.Fprintln(r.diag, stderr)
		}
		return "", NewCommandFailedError(argv, res.exitStatus, stderr)
	}

	output := res.stdout
	if captureStderr {
		output = execout.AggregateOutput(res.stdout, res.stderr)
	}

	r.logger.Debug("command finished", "command", argv)
	return execout.StripTrailingNewline(execout.Decode(output)), nil
}

// invoke starts argv and waits for it. A non-nil error means the process
// could not be run at all or ctx ended; exit statuses are reported in result.
func invoke(ctx context.Context, argv []string, o *options) (*result, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if o.dir != "" {
		cmd.Dir = o.dir
	}
	cmd.Env = o.environ()
	if o.stdin != nil {
		cmd.Stdin = o.stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := &result{}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("run %s: %w", argv[0], ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", argv[0], err)
		}
		res.exitStatus = exitErr.ExitCode()
	}
	res.stdout = stdout.Bytes()
	res.stderr = stderr.Bytes()
	return res, nil
}
