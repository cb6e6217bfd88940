package compat

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestExecRunnerExitCode(t *testing.T) {
	sh := requireShell(t)
	runner := NewExecRunner(Config{}, nil)

	res, err := runner.Run(context.Background(), Command{
		Name: sh,
		Args: []string{"-c", "echo building; echo broken >&2; exit 3"},
	})
	require.NoError(t, err, "a non-zero exit is not a runner error")
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())
	assert.Contains(t, string(res.Output), "building")
	assert.Contains(t, string(res.Output), "broken")
}

func TestExecRunnerDir(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()

	res, err := NewExecRunner(Config{}, nil).Run(context.Background(), Command{
		Name: sh,
		Args: []string{"-c", "pwd"},
		Dir:  dir,
	})
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(res.Output)), strings.TrimPrefix(dir, "/private")))
}

func TestExecRunnerEnvironment(t *testing.T) {
	sh := requireShell(t)
	t.Setenv("RUSTUP_TOOLCHAIN", "nightly")
	t.Setenv("COMPAT_INHERITED", "parent")

	runner := NewExecRunner(Config{Env: map[string]string{
		"COMPAT_SHARED":   "config",
		"COMPAT_OVERRIDE": "config",
	}}, nil)

	res, err := runner.Run(context.Background(), Command{
		Name:  sh,
		Args:  []string{"-c", `echo "tc=${RUSTUP_TOOLCHAIN-unset} in=$COMPAT_INHERITED sh=$COMPAT_SHARED ov=$COMPAT_OVERRIDE"`},
		Env:   map[string]string{"COMPAT_OVERRIDE": "command"},
		Unset: []string{"RUSTUP_TOOLCHAIN"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tc=unset in=parent sh=config ov=command", strings.TrimSpace(string(res.Output)))
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := NewExecRunner(Config{}, nil).Run(context.Background(), Command{Name: "compat-no-such-tool"})
	assert.Error(t, err)

	_, err = NewExecRunner(Config{}, nil).Run(context.Background(), Command{})
	assert.Error(t, err)
}

func TestExecRunnerTimeout(t *testing.T) {
	sh := requireShell(t)
	runner := NewExecRunner(Config{CommandTimeout: 50 * time.Millisecond}, nil)

	res, err := runner.Run(context.Background(), Command{Name: sh, Args: []string{"-c", "exec sleep 5"}})
	require.NoError(t, err, "a timed out command is a failed command")
	assert.False(t, res.Success())
}

func TestExecRunnerTimeoutKillsChildren(t *testing.T) {
	sh := requireShell(t)
	runner := NewExecRunner(Config{CommandTimeout: 100 * time.Millisecond}, nil)

	// The shell forks sleep, which inherits the output pipe.
	start := time.Now()
	res, err := runner.Run(context.Background(), Command{Name: sh, Args: []string{"-c", "sleep 4; true"}})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.False(t, res.Success())
	assert.Less(t, elapsed, 2*time.Second, "the timeout must stop the whole process tree")
}

func TestExecRunnerCancelled(t *testing.T) {
	sh := requireShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecRunner(Config{}, nil).Run(ctx, Command{Name: sh, Args: []string{"-c", "exit 0"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "cargo", Command{Name: "cargo"}.String())
	assert.Equal(t, "cargo +1.60.0 check", Command{Name: "cargo", Args: []string{"+1.60.0", "check"}}.String())
}
