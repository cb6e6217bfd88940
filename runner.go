package compat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Command describes one subprocess invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   map[string]string // Set on top of the inherited environment
	Unset []string          // Removed from the inherited environment
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandResult is the outcome of a subprocess that was started.
type CommandResult struct {
	ExitCode int
	Output   []byte // Combined stdout and stderr
	Duration time.Duration
}

// Success reports whether the process exited zero.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Lines splits the combined output into lines.
func (r CommandResult) Lines() []string {
	if len(r.Output) == 0 {
		return nil
	}
	return strings.Split(string(r.Output), "\n")
}

// CommandRunner runs subprocesses.
//
// A non-zero exit is reported through CommandResult.ExitCode, not as an
// error. The error return is reserved for processes that could not be
// started at all, or for a cancelled context.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// killWaitDelay is how long Run waits for output after killing a command.
const killWaitDelay = 2 * time.Second

// ExecRunner runs commands on the host with os/exec. Each command runs in
// its own process group, which is killed as a whole on timeout or
// cancellation.
type ExecRunner struct {
	timeout time.Duration
	env     map[string]string
	log     *zap.Logger
}

// NewExecRunner creates a runner applying cfg.CommandTimeout and cfg.Env to
// every command.
func NewExecRunner(cfg Config, log *zap.Logger) *ExecRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecRunner{
		timeout: cfg.CommandTimeout,
		env:     cfg.Env,
		log:     log,
	}
}

// Run executes cmd and waits for it to finish.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	if cmd.Name == "" {
		return CommandResult{}, fmt.Errorf("command name is required")
	}

	execCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	c := exec.CommandContext(execCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = r.environment(cmd)
	setupProcessGroup(c)
	c.Cancel = func() error { return killProcessGroup(c) }
	// Bounds the wait for output pipes held open by orphaned grandchildren.
	c.WaitDelay = killWaitDelay

	r.log.Debug("running command",
		zap.String("command", cmd.String()),
		zap.String("dir", cmd.Dir))

	start := time.Now()
	output, err := c.CombinedOutput()
	result := CommandResult{
		ExitCode: 0,
		Output:   output,
		Duration: time.Since(start),
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// The process itself exited zero.
		err = nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return result, ctx.Err()
		case errors.As(err, &exitErr):
			// -1 when killed by a signal, typically the timeout.
			result.ExitCode = exitErr.ExitCode()
		case execCtx.Err() != nil:
			// Timed out, but the process exited zero before it was killed.
			result.ExitCode = -1
		default:
			return result, fmt.Errorf("run %s: %w", cmd.Name, err)
		}
	}

	r.log.Debug("command finished",
		zap.String("command", cmd.String()),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))

	return result, nil
}

func (r *ExecRunner) environment(cmd Command) []string {
	unset := make(map[string]struct{}, len(cmd.Unset))
	for _, key := range cmd.Unset {
		unset[key] = struct{}{}
	}
	drop := make(map[string]struct{}, len(cmd.Unset)+len(cmd.Env)+len(r.env))
	for key := range unset {
		drop[key] = struct{}{}
	}
	for key := range r.env {
		drop[key] = struct{}{}
	}
	for key := range cmd.Env {
		drop[key] = struct{}{}
	}

	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := drop[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for key, value := range r.env {
		if _, override := cmd.Env[key]; override {
			continue
		}
		if _, ok := unset[key]; ok {
			continue
		}
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	for key, value := range cmd.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}
