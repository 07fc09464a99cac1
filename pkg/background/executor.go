// Package background runs named long-lived units of work concurrently and
// surfaces their accumulated textual output by handle.
package background

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ErrUnknownHandle is returned for operations on a handle the executor
// does not recognize.
var ErrUnknownHandle = errors.New("unknown handle")

// TaskTypeTeammate allocates handles with the "t" prefix. Any other task
// type gets the default "b" prefix.
const TaskTypeTeammate = "teammate"

// Output accumulates a unit's textual output. Reads are destructive in the
// sense that each read returns only the output produced since the previous
// read.
type Output struct {
	mu      sync.Mutex
	buf     []byte
	cursor  int
	updated chan struct{} // closed and replaced on every append
}

// NewOutput creates an empty accumulator. The executor allocates one per
// unit; standalone ones are handy in tests.
func NewOutput() *Output {
	return &Output{updated: make(chan struct{})}
}

// Append adds text to the accumulated output and wakes blocked readers.
func (o *Output) Append(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = append(o.buf, s...)
	close(o.updated)
	o.updated = make(chan struct{})
}

// Appendf formats and appends.
func (o *Output) Appendf(format string, args ...any) {
	o.Append(fmt.Sprintf(format, args...))
}

// readNew returns output produced since the last read and a channel that
// is closed on the next append.
func (o *Output) readNew() (string, <-chan struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := string(o.buf[o.cursor:])
	o.cursor = len(o.buf)
	return out, o.updated
}

// Snapshot returns everything appended so far without moving the read
// cursor.
func (o *Output) Snapshot() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return string(o.buf)
}

// pending reports whether unread output exists, together with the
// channel closed on the next append. Both are read under one lock so an
// append cannot slip between the check and the channel grab.
func (o *Output) pending() (bool, <-chan struct{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cursor < len(o.buf), o.updated
}

// Unit is a running or finished unit of work.
type unit struct {
	handle    string
	out       *Output
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

// Executor schedules units of work on their own goroutines. Units
// communicate with callers only through their Output accumulator.
type Executor struct {
	mu    sync.RWMutex
	units map[string]*unit
	seq   int
}

// NewExecutor creates an empty Executor.
func NewExecutor() *Executor {
	return &Executor{units: make(map[string]*unit)}
}

// Run launches fn asynchronously and returns its handle. Handles are
// prefixed by task type: "t" for teammates, "b" otherwise. A panic or
// error inside fn is captured and appended to the output as a terminal
// error line; it never propagates.
func (e *Executor) Run(ctx context.Context, fn func(ctx context.Context, out *Output) error, taskType string) string {
	prefix := "b"
	if taskType == TaskTypeTeammate {
		prefix = "t"
	}

	unitCtx, cancel := context.WithCancel(ctx)

	e.mu.Lock()
	e.seq++
	handle := prefix + strconv.Itoa(e.seq)
	u := &unit{
		handle:    handle,
		out:       NewOutput(),
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	e.units[handle] = u
	e.mu.Unlock()

	go func() {
		defer close(u.done)
		defer func() {
			if r := recover(); r != nil {
				u.out.Appendf("\nError: panic: %v", r)
			}
		}()
		if err := fn(unitCtx, u.out); err != nil {
			u.out.Appendf("\nError: %s", err)
		}
	}()

	return handle
}

// Output returns all output the unit has produced since the last read.
// When block is true and there is no new output, it waits up to timeout
// for more output or for the unit to finish.
func (e *Executor) Output(handle string, block bool, timeout time.Duration) (string, error) {
	u, ok := e.get(handle)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	if block {
		if hasNew, updated := u.out.pending(); !hasNew {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			select {
			case <-updated:
			case <-u.done:
			case <-timer.C:
			}
		}
	}

	out, _ := u.out.readNew()
	return out, nil
}

// Stop cancels a unit and waits briefly for it to acknowledge.
func (e *Executor) Stop(handle string) error {
	u, ok := e.get(handle)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	u.cancel()
	select {
	case <-u.done:
	case <-time.After(5 * time.Second):
	}
	return nil
}

// Running reports whether the unit is still executing.
func (e *Executor) Running(handle string) bool {
	u, ok := e.get(handle)
	if !ok {
		return false
	}
	select {
	case <-u.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the unit finishes or the context is cancelled.
func (e *Executor) Wait(ctx context.Context, handle string) error {
	u, ok := e.get(handle)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	select {
	case <-u.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) get(handle string) (*unit, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	u, ok := e.units[handle]
	return u, ok
}
