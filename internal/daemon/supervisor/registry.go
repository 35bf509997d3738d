// Package supervisor owns the child processes started from the menu: the
// ordered registry of running scripts and their start/stop lifecycle.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the registry.
var (
	ErrIndexOutOfRange = errors.New("process index out of range")
	ErrUnknownProcess  = errors.New("unknown process")
)

// maxReaped bounds how many exited ids AwaitExit still recognises.
const maxReaped = 64

// CommandFunc builds the command that runs script inside workDir.
type CommandFunc func(workDir, script string) *exec.Cmd

// Options configures a Registry.
type Options struct {
	// Runner is the package-script runner, invoked as "<Runner> run <script>".
	// Ignored when Command is set.
	Runner string

	// Command overrides how a script is turned into a command.
	Command CommandFunc

	// GracePeriod is how long a stopped process group may keep running
	// before it is force killed. Zero disables the escalation.
	GracePeriod time.Duration
}

// RunnerCommand returns a CommandFunc that runs "<runner> run <script>".
func RunnerCommand(runner string) CommandFunc {
	return func(workDir, script string) *exec.Cmd {
		cmd := exec.Command(runner, "run", script)
		cmd.Dir = workDir
		cmd.Env = os.Environ()
		return cmd
	}
}

// Entry identifies a started process.
type Entry struct {
	ID  string
	Key string
}

// SnapshotEntry is a read-only view of one registry entry.
type SnapshotEntry struct {
	ID     string
	Key    string
	Label  string
	Exited bool // the process ended on its own and is still listed
}

// Registry is the ordered set of supervised processes. Order is launch
// order. Entries leave the registry only through Stop and StopAll.
type Registry struct {
	mu         sync.Mutex
	procs      []*Process
	stopping   map[string]*Process // removed but not yet exited, for AwaitExit
	reaped     []string            // recently removed ids whose process has exited
	command    CommandFunc
	grace      time.Duration
	onChangeFn func()
}

// New creates an empty registry.
func New(opts Options) *Registry {
	command := opts.Command
	if command == nil {
		runner := opts.Runner
		if runner == "" {
			runner = "npm"
		}
		command = RunnerCommand(runner)
	}
	return &Registry{
		stopping: make(map[string]*Process),
		command:  command,
		grace:    opts.GracePeriod,
	}
}

// SetOnChange sets a callback invoked when a listed process exits on its
// own. It runs on its own goroutine.
func (r *Registry) SetOnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChangeFn = fn
}

// Key returns the registry key for a project script.
func Key(projectName, scriptName string) string {
	return projectName + ":" + scriptName
}

// Start launches scriptName for projectName in workDir and appends it to
// the registry. It never fails: a process that cannot be spawned is listed
// as already exited and the error is logged.
func (r *Registry) Start(projectName, scriptName, workDir string) Entry {
	key := Key(projectName, scriptName)
	id := uuid.NewString()

	cmd := r.command(workDir, scriptName)
	proc := startProcess(id, key, cmd)
	if !proc.IsRunning() {
		log.Printf("[supervisor] %v", proc.ExitErr())
	} else {
		log.Printf("[supervisor] Started %s in %s (pid %d, id %s)", key, workDir, proc.PID(), id)
	}

	r.mu.Lock()
	r.procs = append(r.procs, proc)
	r.mu.Unlock()

	go r.monitor(proc)

	return Entry{ID: id, Key: key}
}

// monitor logs the process exit and notifies listeners when a process that
// is still listed has exited on its own.
func (r *Registry) monitor(proc *Process) {
	<-proc.Done()

	ran := time.Since(proc.StartedAt()).Truncate(time.Millisecond)
	if proc.wasStopped() {
		log.Printf("[supervisor] %s (%s) stopped after %s: %s", proc.Key(), proc.ID(), ran, proc.exitStatus())
	} else {
		log.Printf("[supervisor] %s (%s) exited on its own after %s: %s", proc.Key(), proc.ID(), ran, proc.exitStatus())
	}

	r.mu.Lock()
	if _, ok := r.stopping[proc.ID()]; ok {
		delete(r.stopping, proc.ID())
		r.rememberReapedLocked(proc.ID())
	}
	listed := r.indexOfLocked(proc.ID()) >= 0
	onChange := r.onChangeFn
	r.mu.Unlock()

	if listed && onChange != nil {
		go onChange()
	}
}

// Stop signals the process at index and removes it immediately, without
// waiting for it to exit.
func (r *Registry) Stop(index int) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.procs) {
		n := len(r.procs)
		r.mu.Unlock()
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, n)
	}
	proc := r.procs[index]
	r.procs = append(r.procs[:index:index], r.procs[index+1:]...)
	r.trackStoppingLocked(proc)
	r.mu.Unlock()

	r.terminate(proc)
	return nil
}

// StopAll signals every process and clears the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	procs := r.procs
	r.procs = nil
	for _, p := range procs {
		r.trackStoppingLocked(p)
	}
	r.mu.Unlock()

	for _, p := range procs {
		r.terminate(p)
	}
}

func (r *Registry) trackStoppingLocked(proc *Process) {
	if proc.IsRunning() {
		r.stopping[proc.ID()] = proc
		return
	}
	r.rememberReapedLocked(proc.ID())
}

func (r *Registry) rememberReapedLocked(id string) {
	r.reaped = append(r.reaped, id)
	if len(r.reaped) > maxReaped {
		r.reaped = r.reaped[len(r.reaped)-maxReaped:]
	}
}

func (r *Registry) wasReapedLocked(id string) bool {
	for _, reaped := range r.reaped {
		if reaped == id {
			return true
		}
	}
	return false
}

func (r *Registry) terminate(proc *Process) {
	log.Printf("[supervisor] Stopping %s (%s)", proc.Key(), proc.ID())
	if err := proc.Terminate(); err != nil {
		log.Printf("[supervisor] Failed to signal %s: %v", proc.Key(), err)
	}
	if r.grace > 0 && proc.alive() {
		go proc.killAfter(r.grace)
	}
}

// Snapshot returns a copy of the registry contents in launch order.
func (r *Registry) Snapshot() []SnapshotEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]SnapshotEntry, 0, len(r.procs))
	for _, p := range r.procs {
		entries = append(entries, SnapshotEntry{
			ID:     p.ID(),
			Key:    p.Key(),
			Label:  p.Key(),
			Exited: !p.IsRunning(),
		})
	}
	return entries
}

// Len returns the number of listed processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// Title returns the status-bar title for the current contents.
func (r *Registry) Title() string {
	return Title(r.Snapshot())
}

// Title derives the status-bar title from a snapshot: "Run" when empty, the
// sole key for one entry, otherwise "Running (N)".
func Title(snapshot []SnapshotEntry) string {
	switch len(snapshot) {
	case 0:
		return "Run"
	case 1:
		return snapshot[0].Key
	default:
		return fmt.Sprintf("Running (%d)", len(snapshot))
	}
}

// Process returns the listed process with the given id.
func (r *Registry) Process(id string) (*Process, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOfLocked(id); i >= 0 {
		return r.procs[i], true
	}
	return nil, false
}

// AwaitExit blocks until the process with the given id has exited or ctx is
// done. It also covers processes already removed by Stop or StopAll,
// whether or not they have exited yet.
func (r *Registry) AwaitExit(ctx context.Context, id string) error {
	r.mu.Lock()
	var proc *Process
	if i := r.indexOfLocked(id); i >= 0 {
		proc = r.procs[i]
	} else {
		proc = r.stopping[id]
	}
	reaped := proc == nil && r.wasReapedLocked(id)
	r.mu.Unlock()

	if reaped {
		return nil
	}
	if proc == nil {
		return fmt.Errorf("%w: %s", ErrUnknownProcess, id)
	}

	select {
	case <-proc.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) indexOfLocked(id string) int {
	for i, p := range r.procs {
		if p.ID() == id {
			return i
		}
	}
	return -1
}
