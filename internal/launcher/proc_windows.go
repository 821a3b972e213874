//go:build windows
// +build windows

package launcher

import (
	"os"
	"syscall"
)

func workerSysProcAttr() *syscall.SysProcAttr { return nil }

// Windows has no SIGTERM for console children; both steps kill.
func terminate(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

func kill(p *os.Process) error { return terminate(p) }
