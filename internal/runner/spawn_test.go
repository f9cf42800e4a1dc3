package runner

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deferredSpawner queues tasks until the test runs them.
type deferredSpawner struct {
	mu    sync.Mutex
	tasks []func()
}

func (d *deferredSpawner) Go(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks = append(d.tasks, task)
}

func (d *deferredSpawner) runAll() {
	d.mu.Lock()
	tasks := d.tasks
	d.tasks = nil
	d.mu.Unlock()
	for _, task := range tasks {
		task()
	}
}

// syncBuffer guards a bytes.Buffer shared with background tasks.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func newThreadedRunner(spawner Spawner, logs, diag *syncBuffer) *Runner {
	return New(Config{
		Logger:      slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Diagnostics: diag,
		Spawner:     spawner,
	})
}

func TestRunOnHostThreaded_ReturnsBeforeCallback(t *testing.T) {
	spawner := &deferredSpawner{}
	r := newThreadedRunner(spawner, &syncBuffer{}, &syncBuffer{})

	var calls []string
	r.RunOnHostThreaded([]string{"echo", "hi"}, func(out string) { calls = append(calls, out) }, false)
	assert.Empty(t, calls, "callback must not run before the spawning call returns")

	spawner.runAll()
	assert.Equal(t, []string{"hi"}, calls)
}

func TestRunOnHostThreaded_CallbackOnceOnAnotherGoroutine(t *testing.T) {
	r := newThreadedRunner(GoSpawner{}, &syncBuffer{}, &syncBuffer{})

	var count atomic.Int32
	got := make(chan string, 2)
	returned := make(chan struct{})

	r.RunOnHostThreaded([]string{"echo", "hi"}, func(out string) {
		<-returned
		count.Add(1)
		got <- out
	}, false)
	close(returned)

	select {
	case out := <-got:
		assert.Equal(t, "hi", out)
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestRunOnHostThreaded_FailureIsLoggedNotCalledBack(t *testing.T) {
	spawner := &GroupSpawner{}
	logs, diag := &syncBuffer{}, &syncBuffer{}
	r := newThreadedRunner(spawner, logs, diag)

	called := false
	r.RunOnHostThreaded([]string{"sh", "-c", "echo broken >&2; exit 5"}, func(string) { called = true }, false)
	spawner.Wait()

	assert.False(t, called)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "background command failed")
	assert.Contains(t, logs.String(), "status=5")
	assert.Contains(t, logs.String(), "task=")
	assert.Equal(t, "broken\n\n", diag.String())
}

func TestRunOnHostThreaded_CaptureStderrCallsBackWithStderr(t *testing.T) {
	spawner := &GroupSpawner{}
	logs := &syncBuffer{}
	r := newThreadedRunner(spawner, logs, &syncBuffer{})

	var got string
	r.RunOnHostThreaded([]string{"sh", "-c", "echo broken >&2; exit 5"}, func(out string) { got = out }, true)
	spawner.Wait()

	assert.Equal(t, "broken\n", got)
	assert.NotContains(t, logs.String(), "level=ERROR")
}

func TestRunOnHostThreaded_NilCallback(t *testing.T) {
	spawner := &GroupSpawner{}
	logs := &syncBuffer{}
	r := newThreadedRunner(spawner, logs, &syncBuffer{})

	r.RunOnHostThreaded([]string{"true"}, nil, false)
	spawner.Wait()
	assert.Contains(t, logs.String(), "command finished")
}

func TestRunOnHostThreaded_CallbackPanicIsIsolated(t *testing.T) {
	spawner := &GroupSpawner{}
	logs := &syncBuffer{}
	r := newThreadedRunner(spawner, logs, &syncBuffer{})

	r.RunOnHostThreaded([]string{"true"}, func(string) { panic("boom") }, false)
	require.NotPanics(t, spawner.Wait)
	assert.Contains(t, logs.String(), "background command callback panicked")
}

func TestRunOnHostThreaded_CommandIsCopied(t *testing.T) {
	spawner := &deferredSpawner{}
	r := newThreadedRunner(spawner, &syncBuffer{}, &syncBuffer{})

	cmd := []string{"echo", "before"}
	var got string
	r.RunOnHostThreaded(cmd, func(out string) { got = out }, false)
	cmd[1] = "after"

	spawner.runAll()
	assert.Equal(t, "before", got)
}

func TestGroupSpawner_WaitsForAllTasks(t *testing.T) {
	g := &GroupSpawner{}
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		g.Go(func() {
			time.Sleep(5 * time.Millisecond)
			n.Add(1)
		})
	}
	g.Wait()
	assert.Equal(t, int32(10), n.Load())
}
