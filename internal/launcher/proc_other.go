//go:build !linux && !windows
// +build !linux,!windows

package launcher

import "syscall"

func workerSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
