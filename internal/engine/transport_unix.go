//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// configureProcess starts the engine in its own process group so cancellation
// also stops the interpreter a wrapper launcher forked.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
