package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Task is a unit of background work. The context is cancelled when the pool
// is shut down forcefully.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

var ErrPoolClosed = errors.New("tasks: pool is closed")

type BackgroundTasks struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func New(log *slog.Logger, maxWorkers int, maxTasksQueueSize int) *BackgroundTasks {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundTasks{
		log:        log,
		maxWorkers: maxWorkers,
		tasks:      make(chan Task, maxTasksQueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (t *BackgroundTasks) Run() {
	t.wg.Add(t.maxWorkers)
	for i := 0; i < t.maxWorkers; i++ {
		go t.worker(i)
	}
}

func (t *BackgroundTasks) worker(id int) {
	defer t.wg.Done()
	log := t.log.With("worker", id)
	for task := range t.tasks {
		t.exec(log, task)
	}
}

func (t *BackgroundTasks) exec(log *slog.Logger, task Task) {
	log = log.With("task", task.Name)
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic", "err", err)
		}
	}()
	if err := task.Fn(t.ctx); err != nil {
		log.Warn("task failed", "err", err)
		return
	}
	log.Debug("task done")
}

// Add queues the task, blocking while the queue is full.
func (t *BackgroundTasks) Add(name string, fn func(ctx context.Context) error) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrPoolClosed
	}
	t.tasks <- Task{Name: name, Fn: fn}
	return nil
}

// Shutdown stops accepting tasks and waits for queued ones to finish. When ctx
// expires first, running tasks see their context cancelled.
func (t *BackgroundTasks) Shutdown(ctx context.Context) error {
	const op = "tasks.BackgroundTasks.Shutdown"
	log := t.log.With("op", op)
	log.Info("shutting down background tasks")
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.tasks)
	}
	t.mu.Unlock()
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		t.cancel()
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-done:
		t.cancel()
		log.Info("background tasks successfully stopped")
		return nil
	}
}

func (t *BackgroundTasks) IsEmpty() bool {
	return len(t.tasks) == 0
}
