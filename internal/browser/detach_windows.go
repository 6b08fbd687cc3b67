//go:build windows

package browser

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// detach is a no-op on Windows; Start already creates a separate process.
func detach(cmd *exec.Cmd) {}

// processRunning checks for a running process by image name via tasklist.
func processRunning(name string) bool {
	out, err := exec.Command("tasklist", "/FI", "IMAGENAME eq "+name+".exe", "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(out)), strings.ToLower(name))
}

// terminatePID kills the recorded browser pid via taskkill.
func terminatePID(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("no pid recorded")
	}
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").Run()
}

// killByPort finds the listener on the port via netstat and kills it.
func killByPort(port int) error {
	out, err := exec.Command("netstat", "-ano", "-p", "tcp").Output()
	if err != nil {
		return fmt.Errorf("netstat failed: %w", err)
	}
	needle := ":" + strconv.Itoa(port)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || !strings.HasSuffix(fields[1], needle) {
			continue
		}
		if !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		pid, err := strconv.Atoi(fields[4])
		if err != nil {
			continue
		}
		return terminatePID(pid)
	}
	return fmt.Errorf("no listener found on port %d", port)
}
