package supervisor

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"
)

// Process is one supervised OS process.
type Process struct {
	id        string
	key       string
	cmd       *exec.Cmd
	startedAt time.Time

	done    chan struct{}
	exitErr error

	mu            sync.Mutex
	stopRequested bool
}

// startProcess starts cmd in its own process group. A spawn failure does
// not return an error: the process is reported as already exited with it.
func startProcess(id, key string, cmd *exec.Cmd) *Process {
	p := &Process{
		id:        id,
		key:       key,
		cmd:       cmd,
		startedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}

	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		p.exitErr = fmt.Errorf("failed to start %s: %w", key, err)
		close(p.done)
		return p
	}

	go p.wait()
	return p
}

func (p *Process) wait() {
	p.exitErr = p.cmd.Wait()
	close(p.done)
}

// ID returns the unique launch id.
func (p *Process) ID() string {
	return p.id
}

// Key returns "<project>:<script>".
func (p *Process) Key() string {
	return p.key
}

// PID returns the OS process id, or 0 if the process never started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// StartedAt returns when the process was launched.
func (p *Process) StartedAt() time.Time {
	return p.startedAt
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitErr returns the exit error once the process has exited (nil if it
// exited cleanly or is still running).
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

// IsRunning returns true if the process has not exited yet.
func (p *Process) IsRunning() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate sends SIGTERM to the process group and returns immediately.
// The group is signalled even when the first process has already exited,
// since the children it started may still be running. Signalling a group
// that no longer exists is a no-op.
func (p *Process) Terminate() error {
	p.mu.Lock()
	p.stopRequested = true
	p.mu.Unlock()

	if !p.started() {
		return nil
	}
	return terminateGroup(p.cmd.Process)
}

// Kill force kills the process group.
func (p *Process) Kill() error {
	if !p.started() {
		return nil
	}
	return killGroup(p.cmd.Process)
}

// started reports whether the OS process was spawned.
func (p *Process) started() bool {
	return p.cmd.Process != nil
}

// alive reports whether the first process or any other member of its group
// is still running.
func (p *Process) alive() bool {
	return p.IsRunning() || (p.started() && groupAlive(p.cmd.Process))
}

// killAfter force kills the group if any of it is still alive after grace.
func (p *Process) killAfter(grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
		if !p.alive() {
			return
		}
		<-timer.C
	case <-timer.C:
	}

	if !p.alive() {
		return
	}
	log.Printf("[supervisor] %s (%s) still running %s after stop, killing", p.key, p.id, grace)
	if err := p.Kill(); err != nil {
		log.Printf("[supervisor] Failed to kill %s: %v", p.key, err)
	}
}

func (p *Process) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopRequested
}

// exitStatus describes how the process ended, for logging.
func (p *Process) exitStatus() string {
	err := p.ExitErr()
	if err == nil {
		return "exit status 0"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Error()
	}
	return err.Error()
}
