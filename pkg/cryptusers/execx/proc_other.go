//go:build !unix

package execx

import "os/exec"

func setDetached(*exec.Cmd) {}
