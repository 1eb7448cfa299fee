package synctask

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/google/uuid"
)

// Task is a handle to one operation.
type Task struct {
	ID        uuid.UUID
	Operation outcome.Operation

	once   sync.Once
	done   chan struct{}
	result outcome.Outcome
}

func newTask(op outcome.Operation) *Task {
	return &Task{ID: uuid.New(), Operation: op, done: make(chan struct{})}
}

// Done is closed once the outcome is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Outcome returns the outcome and whether the task has completed.
func (t *Task) Outcome() (outcome.Outcome, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return outcome.Outcome{}, false
	}
}

// Wait blocks until the task completes or ctx is done.
func (t *Task) Wait(ctx context.Context) (outcome.Outcome, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return outcome.Outcome{}, ctx.Err()
	}
}

// complete stores o and runs deliver before waking waiters. It reports
// whether this call was the one that completed the task.
func (t *Task) complete(o outcome.Outcome, deliver func(outcome.Outcome)) bool {
	first := false
	t.once.Do(func() {
		first = true
		t.result = o
		deliver(o)
		close(t.done)
	})
	return first
}
