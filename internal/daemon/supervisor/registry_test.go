//go:build unix

package supervisor

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func commandFunc(argv ...string) CommandFunc {
	return func(workDir, script string) *exec.Cmd {
		cmd := exec.Command(argv[0], argv[1:]...)
		cmd.Dir = workDir
		return cmd
	}
}

func newTestRegistry(t *testing.T, argv ...string) *Registry {
	t.Helper()
	r := New(Options{Command: commandFunc(argv...), GracePeriod: 2 * time.Second})
	t.Cleanup(r.StopAll)
	return r
}

func keys(snapshot []SnapshotEntry) []string {
	out := make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		out = append(out, e.Key)
	}
	return out
}

func awaitExit(t *testing.T, r *Registry, id string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.AwaitExit(ctx, id))
}

func TestStartIncreasesCount(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")
	dir := t.TempDir()

	pairs := []struct{ project, script string }{
		{"api", "dev"},
		{"web", "build"},
		{"docs", "serve"},
	}
	for i, p := range pairs {
		before := len(r.Snapshot())
		entry := r.Start(p.project, p.script, dir)
		after := r.Snapshot()

		require.Len(t, after, before+1, "start #%d", i)
		assert.Equal(t, p.project+":"+p.script, entry.Key)
		assert.Equal(t, entry.Key, after[len(after)-1].Key)
		assert.Equal(t, entry.ID, after[len(after)-1].ID)
	}
}

func TestStartDuplicateKeepsBothEntries(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")
	dir := t.TempDir()

	first := r.Start("api", "dev", dir)
	second := r.Start("api", "dev", dir)

	assert.Equal(t, []string{"api:dev", "api:dev"}, keys(r.Snapshot()))
	assert.Equal(t, first.Key, second.Key)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStopRemovesExactlyOne(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")
	dir := t.TempDir()

	a := r.Start("a", "dev", dir)
	b := r.Start("b", "dev", dir)
	c := r.Start("c", "dev", dir)

	require.NoError(t, r.Stop(1))

	snapshot := r.Snapshot()
	assert.Equal(t, []string{"a:dev", "c:dev"}, keys(snapshot))
	assert.Equal(t, a.ID, snapshot[0].ID)
	assert.Equal(t, c.ID, snapshot[1].ID)

	// The stopped process goes away; the others are untouched.
	awaitExit(t, r, b.ID)
	for _, id := range []string{a.ID, c.ID} {
		proc, ok := r.Process(id)
		require.True(t, ok)
		assert.True(t, proc.IsRunning(), "process %s should still run", id)
	}
}

func TestStopOutOfRange(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")
	r.Start("api", "dev", t.TempDir())

	for _, index := range []int{-1, 1, 5} {
		err := r.Stop(index)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "index %d: %v", index, err)
	}
	assert.Equal(t, []string{"api:dev"}, keys(r.Snapshot()))
}

func TestStopAllIsIdempotent(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")

	r.StopAll()
	assert.Empty(t, r.Snapshot())

	dir := t.TempDir()
	first := r.Start("api", "dev", dir)
	second := r.Start("web", "dev", dir)

	r.StopAll()
	assert.Empty(t, r.Snapshot())
	r.StopAll()
	assert.Empty(t, r.Snapshot())

	awaitExit(t, r, first.ID)
	awaitExit(t, r, second.ID)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{name: "empty", keys: nil, want: "Run"},
		{name: "one", keys: []string{"api:dev"}, want: "api:dev"},
		{name: "two", keys: []string{"api:dev", "web:build"}, want: "Running (2)"},
		{name: "five", keys: []string{"a:x", "b:x", "c:x", "d:x", "e:x"}, want: "Running (5)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snapshot []SnapshotEntry
			for _, k := range tt.keys {
				snapshot = append(snapshot, SnapshotEntry{Key: k, Label: k})
			}
			assert.Equal(t, tt.want, Title(snapshot))
		})
	}
}

func TestEndToEndScenario(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")
	dir := t.TempDir()

	assert.Equal(t, "Run", r.Title())

	r.Start("api", "dev", dir)
	r.Start("web", "build", dir)
	assert.Equal(t, []string{"api:dev", "web:build"}, keys(r.Snapshot()))
	assert.Equal(t, "Running (2)", r.Title())

	require.NoError(t, r.Stop(0))
	assert.Equal(t, []string{"web:build"}, keys(r.Snapshot()))
	assert.Equal(t, "web:build", r.Title())

	r.StopAll()
	assert.Empty(t, r.Snapshot())
	assert.Equal(t, "Run", r.Title())
}

func TestStartWithMissingRunner(t *testing.T) {
	r := New(Options{Runner: "/nonexistent/runbar-test-runner"})
	t.Cleanup(r.StopAll)

	entry := r.Start("api", "dev", t.TempDir())
	assert.Equal(t, "api:dev", entry.Key)

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot[0].Exited)

	proc, ok := r.Process(entry.ID)
	require.True(t, ok)
	assert.Error(t, proc.ExitErr())
	assert.Zero(t, proc.PID())

	awaitExit(t, r, entry.ID)
	assert.NoError(t, r.Stop(0))
	assert.Empty(t, r.Snapshot())
}

func TestExitedProcessStaysListed(t *testing.T) {
	r := newTestRegistry(t, "true")
	changed := make(chan struct{}, 1)
	r.SetOnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	entry := r.Start("api", "lint", t.TempDir())
	awaitExit(t, r, entry.ID)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification after exit")
	}

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.True(t, snapshot[0].Exited)
	assert.Equal(t, "api:lint", r.Title())
}

func TestAwaitExit(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		r := newTestRegistry(t, "sleep", "30")
		err := r.AwaitExit(context.Background(), "missing")
		assert.True(t, errors.Is(err, ErrUnknownProcess))
	})

	t.Run("context done", func(t *testing.T) {
		r := newTestRegistry(t, "sleep", "30")
		entry := r.Start("api", "dev", t.TempDir())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, r.AwaitExit(ctx, entry.ID), context.DeadlineExceeded)
	})

	t.Run("after stop", func(t *testing.T) {
		r := newTestRegistry(t, "sleep", "30")
		entry := r.Start("api", "dev", t.TempDir())

		require.NoError(t, r.Stop(0))
		awaitExit(t, r, entry.ID)
		// Still recognised once reaped.
		awaitExit(t, r, entry.ID)
	})
}

func TestGracePeriodKillsIgnoringProcess(t *testing.T) {
	r := New(Options{
		Command:     commandFunc("sh", "-c", `trap "" TERM; sleep 30`),
		GracePeriod: 100 * time.Millisecond,
	})
	t.Cleanup(r.StopAll)

	entry := r.Start("api", "dev", t.TempDir())
	// Give the shell time to install the trap.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, r.Stop(0))
	awaitExit(t, r, entry.ID)
}

// pgidOf returns the process group of a listed entry; each entry leads its
// own group.
func pgidOf(t *testing.T, r *Registry, id string) int {
	t.Helper()
	proc, ok := r.Process(id)
	require.True(t, ok)
	require.NotZero(t, proc.PID())
	return proc.PID()
}

func requireGroupGone(t *testing.T, pgid int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return errors.Is(unix.Kill(-pgid, 0), unix.ESRCH)
	}, 5*time.Second, 20*time.Millisecond, "process group %d still alive", pgid)
}

func TestGracePeriodKillsGroupAfterLeaderExits(t *testing.T) {
	// The outer shell exits on SIGTERM like npm does, leaving a child that
	// ignores it.
	r := New(Options{
		Command:     commandFunc("sh", "-c", `sh -c 'trap "" TERM; sleep 30' & wait`),
		GracePeriod: 200 * time.Millisecond,
	})
	t.Cleanup(r.StopAll)

	entry := r.Start("api", "dev", t.TempDir())
	pgid := pgidOf(t, r, entry.ID)
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, r.Stop(0))
	awaitExit(t, r, entry.ID)
	requireGroupGone(t, pgid)
}

func TestStopSignalsGroupOfExitedEntry(t *testing.T) {
	r := newTestRegistry(t, "sh", "-c", "sleep 30 & exit 0")

	entry := r.Start("api", "dev", t.TempDir())
	pgid := pgidOf(t, r, entry.ID)
	require.Eventually(t, func() bool {
		return r.Snapshot()[0].Exited
	}, 5*time.Second, 10*time.Millisecond)

	// The background sleep outlives its parent in the same group.
	require.NoError(t, unix.Kill(-pgid, 0))

	require.NoError(t, r.Stop(0))
	requireGroupGone(t, pgid)
}

func TestProcessRecordsStartTime(t *testing.T) {
	r := newTestRegistry(t, "sleep", "30")

	before := time.Now()
	entry := r.Start("api", "dev", t.TempDir())
	proc, ok := r.Process(entry.ID)
	require.True(t, ok)

	assert.WithinDuration(t, before, proc.StartedAt(), time.Second)
	assert.Equal(t, 1, r.Len())
}

func TestRunnerCommand(t *testing.T) {
	cmd := RunnerCommand("npm")("/tmp/project", "dev")
	assert.Equal(t, []string{"npm", "run", "dev"}, cmd.Args)
	assert.Equal(t, "/tmp/project", cmd.Dir)
}
