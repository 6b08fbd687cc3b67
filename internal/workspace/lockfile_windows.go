//go:build windows

package workspace

import (
	"os/exec"
	"strconv"
	"strings"
)

// pidAlive probes whether a process with the given pid exists. Signal 0 is
// meaningless on Windows, so ask tasklist for the pid instead.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}
