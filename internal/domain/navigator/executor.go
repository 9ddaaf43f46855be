package navigator

import (
	"context"
	"fmt"
	"sync"
)

// executor runs operations one at a time on a dedicated goroutine.
// The ops channel is unbuffered: once a send succeeds the operation is
// owned by the loop and will run.
type executor struct {
	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	final     func()
}

func newExecutor() *executor {
	e := &executor{
		ops:  make(chan func()),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *executor) run() {
	defer close(e.done)
	for {
		select {
		case op := <-e.ops:
			op()
		case <-e.quit:
			if e.final != nil {
				e.final()
			}
			return
		}
	}
}

// submit runs fn on the executor and waits for it. The context only bounds
// the wait for a slot; an accepted operation always runs to completion.
func (e *executor) submit(ctx context.Context, fn func() error) error {
	var err error
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("navigator: operation panicked: %v", r)
			}
		}()
		err = fn()
	}

	select {
	case e.ops <- op:
	case <-e.quit:
		return ErrNavigatorClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return err
}

// closeWith stops the loop after running final on it. Only the first
// call's final runs.
func (e *executor) closeWith(final func()) {
	e.closeOnce.Do(func() {
		e.final = final
		close(e.quit)
	})
	<-e.done
}
