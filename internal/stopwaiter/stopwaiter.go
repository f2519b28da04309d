// Package stopwaiter provides a small helper for running goroutines whose
// lifetime is tied to a parent context and that must all be joined on
// shutdown. It is meant to be embedded in a struct the way arbnode embeds
// it in its Sequencer.
package stopwaiter

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// StopWaiter tracks a cancellable context and every goroutine launched
// through it, so that StopAndWait can block until all of them exit.
type StopWaiter struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
}

// Start derives a cancellable context from parentCtx. Start must be called
// exactly once before LaunchThread/CallIteratively/GetContext.
func (s *StopWaiter) Start(parentCtx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		panic("stopwaiter: Start called twice")
	}
	s.ctx, s.cancel = context.WithCancel(parentCtx)
	s.started = true
}

// GetContext returns the context goroutines launched through this
// StopWaiter should observe for cancellation.
func (s *StopWaiter) GetContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Stopped reports whether the StopWaiter's context has been canceled.
func (s *StopWaiter) Stopped() bool {
	ctx := s.GetContext()
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// LaunchThread runs fn in a new goroutine, tracked so StopAndWait waits for
// it. fn must return promptly once ctx is done.
func (s *StopWaiter) LaunchThread(fn func(ctx context.Context)) {
	ctx := s.GetContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// CallIteratively runs fn repeatedly, sleeping for the duration fn returns
// between calls, until the context is canceled. A non-positive duration
// means "run again immediately".
func (s *StopWaiter) CallIteratively(fn func(ctx context.Context) time.Duration) {
	ctx := s.GetContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			interval := fn(ctx)
			if ctx.Err() != nil {
				return
			}
			if interval <= 0 {
				continue
			}
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

// StopAndWait cancels the context and blocks until every launched
// goroutine has returned.
func (s *StopWaiter) StopAndWait() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// StopOnly cancels the context without waiting, useful when the caller
// wants to observe shutdown progress itself. logged names the component for
// the shutdown trace.
func (s *StopWaiter) StopOnly(logged string) {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	log.Debug("stopping component", "component", logged)
	cancel()
}
