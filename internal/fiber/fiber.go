// Package fiber provides the cooperative-scheduling capability that lets a
// long-running engine call be driven to completion on a dedicated worker
// while the caller observes it as a plain synchronous call.
//
// The loader never implements scheduling itself. It only threads a Fiber
// handle from process-wide State into the engine's options; engines that
// support cooperative scheduling submit their work through it.
package fiber

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
)

// EnvDisable names the environment variable that turns detection off
// process-wide. Values "0", "false", "off" and "no" disable the bridge.
const EnvDisable = "SASSLOADER_FIBER"

// Fiber runs fn to completion and returns once it has finished.
//
// Run may block waiting for a free worker; ctx only bounds that wait. Once
// fn starts it always runs to completion.
type Fiber interface {
	Run(ctx context.Context, fn func()) error
}

// Pool is a Fiber backed by a fixed set of worker goroutines.
//
// Thread-safety: Run is safe from any goroutine.
type Pool struct {
	jobs      chan job
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type job struct {
	fn   func()
	done chan error
}

// NewPool starts a pool with the given number of workers (minimum 1).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{jobs: make(chan job)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.done <- runGuarded(j.fn)
	}
}

// runGuarded runs fn, converting a panic into an error so a misbehaving
// engine cannot take a worker down with it.
func runGuarded(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fiber: panic in scheduled call: %v", r)
		}
	}()
	fn()
	return nil
}

// Run submits fn and blocks until it completes.
func (p *Pool) Run(ctx context.Context, fn func()) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-j.done
}

// Close stops accepting work and waits for running calls to finish.
// Run must not be called after Close.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}

// State holds the lazily detected, process-scoped Fiber.
//
// Lifecycle: the handle is detected on the first call to Handle and reused
// for the lifetime of the State. A nil handle means the capability is not
// available; callers then fall back to the engine's callback path.
type State struct {
	once   sync.Once
	detect func() Fiber
	handle Fiber
}

// NewState returns a State that runs detect once, on first use.
func NewState(detect func() Fiber) *State {
	return &State{detect: detect}
}

// Static returns a State whose handle is already known. A nil f yields a
// State that reports the capability as unavailable.
func Static(f Fiber) *State {
	s := &State{handle: f}
	s.once.Do(func() {})
	return s
}

// Handle returns the detected Fiber, or nil when unavailable.
func (s *State) Handle() Fiber {
	s.once.Do(func() {
		if s.detect != nil {
			s.handle = s.detect()
		}
	})
	return s.handle
}

// Default is the process-wide State used when no other is injected.
var Default = NewState(Detect)

// Detect returns a worker-pool Fiber sized to GOMAXPROCS unless the
// environment disables the bridge.
func Detect() Fiber {
	if disabledByEnv(os.Getenv(EnvDisable)) {
		return nil
	}
	return NewPool(runtime.GOMAXPROCS(0))
}

func disabledByEnv(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "off", "no":
		return true
	}
	return false
}
