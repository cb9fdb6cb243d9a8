// Package rebuild serializes mesh rebuilds on a single worker.
//
// Requests are not queued: the coordinator keeps one pending phase shift and
// a newer request replaces it. A result whose request was overtaken while it
// was being built is dropped instead of delivered.
package rebuild

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/geoidmesh/internal/logger"
	"github.com/Faultbox/geoidmesh/internal/mesh"
)

// BuildFunc builds one mesh. mesh.Builder.Build satisfies it.
type BuildFunc func(shift float64) (*mesh.Mesh, error)

// Result is one finished rebuild.
type Result struct {
	Seq        uint64
	PhaseShift float64
	Mesh       *mesh.Mesh
	Err        error
}

type request struct {
	seq   uint64
	shift float64
}

// Coordinator runs rebuilds one at a time, latest request wins.
type Coordinator struct {
	build   BuildFunc
	deliver func(Result)

	mu      sync.Mutex
	pending *request
	seq     uint64
	wake    chan struct{}

	superseded func()
	log        *zap.Logger
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithLogger replaces the component logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// OnSuperseded registers fn to run whenever a pending request is replaced.
func OnSuperseded(fn func()) Option {
	return func(c *Coordinator) { c.superseded = fn }
}

// New returns a Coordinator that builds with build and hands every current
// result to deliver. deliver runs on the worker goroutine.
func New(build BuildFunc, deliver func(Result), opts ...Option) *Coordinator {
	c := &Coordinator{
		build:   build,
		deliver: deliver,
		wake:    make(chan struct{}, 1),
		log:     logger.Named("rebuild"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request schedules a rebuild at shift and returns its sequence number.
// It never blocks.
func (c *Coordinator) Request(shift float64) uint64 {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	replaced := c.pending != nil
	c.pending = &request{seq: seq, shift: shift}
	c.mu.Unlock()

	if replaced {
		c.log.Debug("pending rebuild superseded", zap.Uint64("seq", seq))
		if c.superseded != nil {
			c.superseded()
		}
	}

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return seq
}

// Latest returns the sequence number of the newest request.
func (c *Coordinator) Latest() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Run processes requests until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	c.log.Debug("rebuild worker started")
	defer c.log.Debug("rebuild worker stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.wake:
		}

		req := c.take()
		if req == nil {
			continue
		}

		m, err := c.build(req.shift)

		if ctx.Err() != nil {
			return nil
		}
		if latest := c.Latest(); latest != req.seq {
			c.log.Debug("dropping stale rebuild",
				zap.Uint64("seq", req.seq),
				zap.Uint64("latest", latest),
			)
			continue
		}
		c.deliver(Result{Seq: req.seq, PhaseShift: req.shift, Mesh: m, Err: err})
	}
}

func (c *Coordinator) take() *request {
	c.mu.Lock()
	defer c.mu.Unlock()
	req := c.pending
	c.pending = nil
	return req
}
