//go:build !windows

package fplugin

import (
	"os/exec"
	"syscall"
)

func defaultShell() (program, flag string) {
	return "/bin/sh", "-c"
}

// killProcessGroup starts cmd in its own process group and makes
// cancellation kill the whole group, so children of the shell die with it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
