//go:build !windows

package workspace

import (
	"os"
	"syscall"
)

// pidAlive probes whether a process with the given pid exists. Signal 0
// performs the existence check without delivering anything; EPERM means the
// process exists but belongs to someone else.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
