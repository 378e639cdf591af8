//go:build unix

package execx

import (
	"os/exec"
	"syscall"
)

// setDetached starts cmd in a new process group.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
