//go:build windows

package compat

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
)

func setupProcessGroup(*exec.Cmd) {}

// killProcessGroup kills the process tree with taskkill, then the process
// itself in case taskkill is unavailable.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(cmd.Process.Pid)).Run()
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
