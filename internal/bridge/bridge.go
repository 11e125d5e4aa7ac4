// Package bridge turns an engine's execution model, whether it returns
// directly, calls back later or runs through a fiber handle, into one
// blocking call that yields exactly one result.
//
// INVARIANTS:
//   - Invoke returns exactly once per call, with a result or an error.
//   - A completion arriving after the first is dropped and reported as a
//     protocol violation; it never changes the returned outcome.
//   - A panic raised by the engine during the call becomes an internal
//     error instead of unwinding into the host.
//   - The fiber handle in the request options is passed to the engine
//     untouched. The bridge never schedules work itself.
//
// There is no timeout: a compile either completes or hangs with the
// engine.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/roach88/sassloader/internal/diag"
	"github.com/roach88/sassloader/internal/engine"
)

// Bridge invokes engines.
//
// Thread-safety: Invoke may be called concurrently; each call has its own
// completion channel.
type Bridge struct {
	logger      *slog.Logger
	onViolation func(error)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger used for protocol violations.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithViolationHandler registers fn to receive protocol violations, such
// as a second completion, in addition to the log.
func WithViolationHandler(fn func(error)) Option {
	return func(b *Bridge) {
		b.onViolation = fn
	}
}

// New creates a Bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type reply struct {
	res *engine.Result
	err error
}

// Invoke runs req on the engine behind h and waits for its single result.
//
// Engines implementing engine.SyncRenderer are called directly. Others
// are called through Render with an at-most-once completion.
func (b *Bridge) Invoke(ctx context.Context, h *engine.Handle, req *engine.Request) (*engine.Result, error) {
	if sr, ok := h.Engine.(engine.SyncRenderer); ok {
		return b.invokeSync(ctx, h, sr, req)
	}

	ch := make(chan reply, 1)
	var once sync.Once
	done := func(res *engine.Result, err error) {
		delivered := false
		once.Do(func() {
			delivered = true
			ch <- normalize(res, err)
		})
		if !delivered {
			b.violation(h, diag.Internal("engine completed more than once; extra completion ignored", err))
		}
	}

	b.render(ctx, h, req, done)

	r := <-ch
	return r.res, r.err
}

// render calls Render, converting a panic into a completion.
func (b *Bridge) render(ctx context.Context, h *engine.Handle, req *engine.Request, done engine.Completion) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("engine panicked",
				"engine", h.Name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			done(nil, diag.Internal(h.Name+" panicked", fmt.Errorf("%v", r)))
		}
	}()
	h.Engine.Render(ctx, req, done)
}

func (b *Bridge) invokeSync(ctx context.Context, h *engine.Handle, sr engine.SyncRenderer, req *engine.Request) (res *engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("engine panicked",
				"engine", h.Name,
				"panic", r,
			)
			res, err = nil, diag.Internal(h.Name+" panicked", fmt.Errorf("%v", r))
		}
	}()
	r := normalize(sr.RenderSync(ctx, req))
	return r.res, r.err
}

// normalize enforces that exactly one of result and error is set.
func normalize(res *engine.Result, err error) reply {
	switch {
	case err != nil:
		return reply{err: err}
	case res == nil:
		return reply{err: diag.Internal("engine completed without a result or an error", nil)}
	}
	return reply{res: res}
}

func (b *Bridge) violation(h *engine.Handle, err error) {
	b.logger.Warn("engine protocol violation",
		"engine", h.Name,
		"error", err,
	)
	if b.onViolation != nil {
		b.onViolation(err)
	}
}
