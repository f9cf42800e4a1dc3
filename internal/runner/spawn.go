package runner

import "sync"

// Spawner starts background tasks. Go must return without waiting for
// task to run.
type Spawner interface {
	Go(task func())
}

// GoSpawner runs each task on its own goroutine.
type GoSpawner struct{}

// Go starts task on a new goroutine.
func (GoSpawner) Go(task func()) {
	go task()
}

// GroupSpawner runs each task on its own goroutine and lets the owner wait
// for every task submitted so far.
type GroupSpawner struct {
	wg sync.WaitGroup
}

// Go starts task on a new goroutine tracked by the group.
func (g *GroupSpawner) Go(task func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		task()
	}()
}

// Wait blocks until all submitted tasks have returned.
func (g *GroupSpawner) Wait() {
	g.wg.Wait()
}
