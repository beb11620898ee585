//go:build windows

package fplugin

import "os/exec"

func defaultShell() (program, flag string) {
	return "cmd", "/C"
}

// killProcessGroup keeps exec's default cancellation, which kills the shell
// process only.
func killProcessGroup(cmd *exec.Cmd) {}
