//go:build unix

package execx

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestExec_DetachedCommandsGetOwnProcessGroup(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH, skipping test")
	}

	cmd := Exec{}.command(context.Background(), Command{Name: "sh"})
	if cmd.SysProcAttr != nil && cmd.SysProcAttr.Setpgid {
		t.Error("plain command should stay in the caller's process group")
	}
	cmd = Exec{}.command(Detach(context.Background()), Command{Name: "sh"})
	if cmd.SysProcAttr == nil || !cmd.SysProcAttr.Setpgid {
		t.Fatal("detached command should request a new process group")
	}

	res, err := RunChecked(Detach(context.Background()), Exec{}, Command{Name: "sh", Args: []string{"-c", "echo ok"}})
	if err != nil {
		t.Fatalf("RunChecked returned error: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "ok" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "ok\n")
	}
}
