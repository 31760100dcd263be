package core

import (
	"context"
	"log"
	"sync"
)

// Supervisor owns detached background tasks. Tasks submitted here live on a
// process-wide context rather than the context of whatever call site started
// them, so a readiness poll keeps running after the command or screen that
// created the bookmark has moved on. Shutdown cancels every task and waits.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor() *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{ctx: ctx, cancel: cancel}
}

// Go runs fn in its own goroutine under the supervisor's context.
func (s *Supervisor) Go(name string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Background task %s panicked: %v", name, r)
			}
		}()
		fn(s.ctx)
	}()
}

// Wait blocks until every submitted task has returned.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Shutdown cancels all tasks and waits for them to return.
func (s *Supervisor) Shutdown() {
	s.cancel()
	s.wg.Wait()
}
