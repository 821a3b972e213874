//go:build !windows
// +build !windows

package worker

import (
	"bufio"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
)

// A worker attached to a terminal must emit each line as soon as it is
// produced, without waiting for a buffer to fill.
func TestWorkerLinesReachTerminalImmediately(t *testing.T) {
	inv := Invocation{Name: "Tty", Delay: 0.3, Variant: "cloud"}
	c := exec.Command(os.Args[0], inv.Args()...)
	c.Env = append(os.Environ(), helperEnv+"=1")

	ptmx, err := pty.Start(c)
	if err != nil {
		t.Skipf("cannot start PTY in this environment: %v", err)
	}
	defer ptmx.Close()
	defer func() {
		_ = c.Process.Kill()
		_ = c.Wait()
	}()

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(ptmx)
		for sc.Scan() {
			lines <- strings.TrimRight(sc.Text(), "\r")
		}
		close(lines)
	}()

	want := []string{"[Tty] Initializing on Cloud!", "[Tty] Executing on Cloud"}
	deadline := time.After(20 * time.Second)
	for _, w := range want {
		select {
		case got, ok := <-lines:
			if !ok {
				t.Fatalf("terminal closed before %q", w)
			}
			if got != w {
				t.Fatalf("got %q, want %q", got, w)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}
