//go:build !windows
// +build !windows

package launcher

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// terminate sends SIGTERM to the child's process group, falling back to the
// process itself.
func terminate(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

func kill(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil || p.Pid <= 0 {
		return nil
	}
	if err := unix.Kill(-p.Pid, sig); err == nil {
		return nil
	}
	return p.Signal(sig)
}
