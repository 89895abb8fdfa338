package pipeline

import (
	"context"
	"sync"
)

// EffectExecutor performs effects; Executor is the production implementation.
type EffectExecutor interface {
	Execute(ctx context.Context, eff Effect) Event
}

// Runner is a headless event loop around a Machine.
//
// Events are applied one at a time on the Run goroutine; effects run on
// their own goroutines and feed their results back through Dispatch.
type Runner struct {
	machine  *Machine
	exec     EffectExecutor
	events   chan Event
	done     chan struct{}
	onChange func(Snapshot)
	onNotice func(string)
	wg       sync.WaitGroup
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// OnChange registers a callback invoked on the loop goroutine after every event.
func OnChange(f func(Snapshot)) RunnerOption {
	return func(r *Runner) {
		r.onChange = f
	}
}

// OnNotice registers a callback for Notice effects.
func OnNotice(f func(string)) RunnerOption {
	return func(r *Runner) {
		r.onNotice = f
	}
}

// NewRunner creates a Runner for m.
func NewRunner(m *Machine, exec EffectExecutor, opts ...RunnerOption) *Runner {
	r := &Runner{
		machine:  m,
		exec:     exec,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
		onChange: func(Snapshot) {},
		onNotice: func(string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch queues ev. It is safe to call from any goroutine and returns
// without queuing once Run has exited.
func (r *Runner) Dispatch(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

// Run applies events until ctx is canceled, then waits for in-flight
// effects to return.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		close(r.done)
		r.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.events:
			effects := r.machine.Handle(ev)
			r.onChange(r.machine.Snapshot())
			for _, eff := range effects {
				r.start(ctx, eff)
			}
		}
	}
}

func (r *Runner) start(ctx context.Context, eff Effect) {
	if n, ok := eff.(Notice); ok {
		r.onNotice(n.Message)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if ev := r.exec.Execute(ctx, eff); ev != nil {
			r.Dispatch(ev)
		}
	}()
}
