//go:build !windows

package browser

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// detach puts the child in its own session so it survives daemon restarts.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// processRunning checks for a running process by name via pgrep.
func processRunning(name string) bool {
	out, err := exec.Command("pgrep", "-x", name).Output()
	return err == nil && len(strings.TrimSpace(string(out))) > 0
}

// terminatePID sends SIGTERM to the recorded browser pid.
func terminatePID(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("no pid recorded")
	}
	return syscall.Kill(pid, syscall.SIGTERM)
}

// killByPort is a last resort on Windows only; elsewhere the SIGTERM path is
// sufficient.
func killByPort(port int) error {
	return fmt.Errorf("kill by port not supported on this platform")
}
