// Package launcher starts counting workers as separate OS processes and
// joins them.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"cpuburn/internal/logging"
	"cpuburn/internal/worker"
)

// WorkerCommand is the subcommand the launched executable must understand.
const WorkerCommand = "worker"

// DefaultStopGrace is how long Stop waits between SIGTERM and SIGKILL.
const DefaultStopGrace = 250 * time.Millisecond

var ErrAlreadyStarted = errors.New("launcher already started")

// DefaultInvocations returns the fixed set of workers started by cpuburn.
func DefaultInvocations() []worker.Invocation {
	return []worker.Invocation{
		{Name: "Task 3", Delay: 0.3, Variant: worker.DefaultVariant},
		{Name: "Task 4", Delay: 0.4, Variant: worker.DefaultVariant},
	}
}

type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateExited   State = "exited"
	StateFailed   State = "failed"
)

// Status is a snapshot of one child process.
type Status struct {
	Name     string
	PID      int
	State    State
	ExitCode int
	Started  time.Time
}

// Exit is what Wait reports for a child once it has terminated.
type Exit struct {
	Name     string
	PID      int
	ExitCode int
	Err      error
}

type child struct {
	inv     worker.Invocation
	cmd     *exec.Cmd
	started time.Time

	done     chan struct{}
	state    State
	exitCode int
	exitErr  error
}

type Launcher struct {
	exe        string
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	env        []string
	grace      time.Duration

	mu       sync.Mutex
	children []*child
	started  bool
	stopOnce sync.Once
}

type Option func(*Launcher)

func WithStdout(w io.Writer) Option { return func(l *Launcher) { l.stdout = w } }
func WithStderr(w io.Writer) Option { return func(l *Launcher) { l.stderr = w } }

// WithEnv appends entries to the environment inherited by every child.
func WithEnv(env ...string) Option {
	return func(l *Launcher) { l.env = append(l.env, env...) }
}

// WithConfigPath makes every child load the same config file as the
// launcher instead of resolving one from its working directory.
func WithConfigPath(path string) Option {
	return func(l *Launcher) { l.configPath = path }
}

func WithStopGrace(d time.Duration) Option {
	return func(l *Launcher) {
		if d >= 0 {
			l.grace = d
		}
	}
}

// New returns a launcher that re-executes exe as "exe worker <flags>" for
// every invocation.
func New(exe string, opts ...Option) *Launcher {
	l := &Launcher{
		exe:    exe,
		stdout: os.Stdout,
		stderr: os.Stderr,
		grace:  DefaultStopGrace,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start launches one child per invocation and returns once all of them are
// running. It does not wait for any child. If ctx is cancelled later the
// children are stopped.
func (l *Launcher) Start(ctx context.Context, invs []worker.Invocation) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	l.mu.Unlock()

	for _, inv := range invs {
		if err := inv.Validate(); err != nil {
			l.Stop()
			return fmt.Errorf("invalid worker %q: %w", inv.Name, err)
		}
		if err := l.startOne(inv); err != nil {
			l.Stop()
			return fmt.Errorf("start worker %q: %w", inv.Name, err)
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			logging.Info("launcher.stop", map[string]interface{}{"reason": ctx.Err().Error()})
			l.Stop()
		case <-l.allDone():
		}
	}()
	return nil
}

func (l *Launcher) startOne(inv worker.Invocation) error {
	cmd := exec.Command(l.exe, l.workerArgs(inv)...)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	if len(l.env) > 0 {
		cmd.Env = append(os.Environ(), l.env...)
	}
	cmd.SysProcAttr = workerSysProcAttr()

	c := &child{
		inv:     inv,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
		state:   StateStarting,
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	l.mu.Lock()
	c.state = StateRunning
	l.children = append(l.children, c)
	l.mu.Unlock()

	logging.Info("launcher.start", map[string]interface{}{
		"name":      inv.Name,
		"child_pid": cmd.Process.Pid,
	})

	go l.waitForExit(c)
	return nil
}

// workerArgs is the command line of the child running inv.
func (l *Launcher) workerArgs(inv worker.Invocation) []string {
	args := []string{WorkerCommand}
	if l.configPath != "" {
		args = append(args, "--config", l.configPath)
	}
	return append(args, inv.Args()...)
}

func (l *Launcher) waitForExit(c *child) {
	err := c.cmd.Wait()

	exitCode := 0
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			exitCode = ee.ExitCode()
		} else {
			exitCode = 1
		}
	}

	state := StateExited
	if err != nil {
		state = StateFailed
	}

	l.mu.Lock()
	c.exitErr = err
	c.exitCode = exitCode
	c.state = state
	l.mu.Unlock()

	fields := map[string]interface{}{
		"name":      c.inv.Name,
		"child_pid": c.cmd.Process.Pid,
		"exit_code": exitCode,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logging.Info("launcher.exit", fields)

	close(c.done)
}

// Wait blocks on each child in start order until every one has terminated.
// Children that never exit keep Wait blocked forever.
func (l *Launcher) Wait() []Exit {
	children := l.snapshot()
	exits := make([]Exit, 0, len(children))
	for _, c := range children {
		<-c.done
		l.mu.Lock()
		exits = append(exits, Exit{
			Name:     c.inv.Name,
			PID:      c.cmd.Process.Pid,
			ExitCode: c.exitCode,
			Err:      c.exitErr,
		})
		l.mu.Unlock()
	}
	return exits
}

// Stop terminates every child that is still running: SIGTERM to its
// process group, then SIGKILL after the grace period. Safe to call more
// than once.
func (l *Launcher) Stop() {
	l.stopOnce.Do(func() {
		var wg sync.WaitGroup
		for _, c := range l.snapshot() {
			select {
			case <-c.done:
				continue
			default:
			}
			wg.Add(1)
			go func(c *child) {
				defer wg.Done()
				l.stopChild(c)
			}(c)
		}
		wg.Wait()
	})
}

func (l *Launcher) stopChild(c *child) {
	pid := c.cmd.Process.Pid
	_ = terminate(c.cmd.Process)

	t := time.NewTimer(l.grace)
	defer t.Stop()
	select {
	case <-c.done:
		return
	case <-t.C:
	}

	logging.Warn("launcher.kill", map[string]interface{}{"name": c.inv.Name, "child_pid": pid})
	_ = kill(c.cmd.Process)
}

// Processes reports the current state of every child in start order.
func (l *Launcher) Processes() []Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Status, 0, len(l.children))
	for _, c := range l.children {
		out = append(out, Status{
			Name:     c.inv.Name,
			PID:      c.cmd.Process.Pid,
			State:    c.state,
			ExitCode: c.exitCode,
			Started:  c.started,
		})
	}
	return out
}

func (l *Launcher) snapshot() []*child {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*child(nil), l.children...)
}

func (l *Launcher) allDone() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		for _, c := range l.snapshot() {
			<-c.done
		}
		close(ch)
	}()
	return ch
}
