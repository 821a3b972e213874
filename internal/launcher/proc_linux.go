//go:build linux
// +build linux

package launcher

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// workerSysProcAttr puts each worker in its own process group and asks the
// kernel to send it SIGTERM if the launcher dies first.
func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: unix.SIGTERM,
	}
}
