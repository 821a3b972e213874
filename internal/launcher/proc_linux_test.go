//go:build linux
// +build linux

package launcher

import (
	"bufio"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// processGone reports whether pid no longer runs. A zombie waiting for a
// reaper counts as gone.
func processGone(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return true
	}
	// The state follows the parenthesised command name.
	s := string(b)
	i := strings.LastIndexByte(s, ')')
	if i < 0 || i+2 >= len(s) {
		return false
	}
	return s[i+2] == 'Z' || s[i+2] == 'X'
}

// A worker whose launcher is SIGKILLed must not keep burning CPU.
func TestWorkerDiesWithKilledLauncher(t *testing.T) {
	parent := exec.Command(os.Args[0])
	parent.Env = append(os.Environ(), parentEnv+"=1")
	out, err := parent.StdoutPipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	if err := parent.Start(); err != nil {
		t.Fatalf("start launcher helper: %v", err)
	}
	defer func() {
		_ = parent.Process.Kill()
		_ = parent.Wait()
	}()

	pidCh := make(chan int, 1)
	go func() {
		sc := bufio.NewScanner(out)
		if sc.Scan() {
			pid, _ := strconv.Atoi(strings.TrimSpace(sc.Text()))
			pidCh <- pid
		}
		close(pidCh)
	}()

	var workerPID int
	select {
	case workerPID = <-pidCh:
	case <-time.After(20 * time.Second):
		t.Fatalf("launcher helper did not report a worker pid")
	}
	if workerPID <= 0 {
		t.Fatalf("launcher helper reported no worker pid")
	}
	if processGone(workerPID) {
		t.Fatalf("worker %d not running before launcher was killed", workerPID)
	}

	if err := parent.Process.Signal(syscall.SIGKILL); err != nil {
		t.Fatalf("kill launcher: %v", err)
	}
	_ = parent.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if processGone(workerPID) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	_ = syscall.Kill(workerPID, syscall.SIGKILL)
	t.Fatalf("worker %d still running after its launcher was killed", workerPID)
}
