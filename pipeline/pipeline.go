/*
NAME
  pipeline.go

DESCRIPTION
  pipeline.go implements Pipeline, a generic order-preserving worker pool
  modelled on the reference vhs-teletext analyser's pure generator pool: a
  fixed bank of workers, each constructed exactly once (so that any
  one-time, unshareable setup a Stage does happens once per worker, not
  once per item), draining a shared work queue and returning results
  re-ordered back into submission order.

AUTHORS
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline implements an ordered, parallel apply over a Stage: a
// bank of workers each process items from a shared queue, and results are
// re-ordered back into submission order before being handed out, giving
// callers the throughput of parallel dispatch with the determinism of a
// sequential map.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
)

// ErrWorkerStartTimeout is returned by New when a worker fails to report
// ready within the start timeout.
var ErrWorkerStartTimeout = errors.New("pipeline: timed out waiting for worker to start")

// ErrChildStopped is returned by Err (and delivered to a pending Apply
// call) when a worker goroutine stops without the pipeline having asked
// it to, mirroring the reference implementation's ChildProcessError.
var ErrChildStopped = errors.New("pipeline: a worker stopped unexpectedly")

// startTimeout bounds how long New waits for every worker to report ready.
const startTimeout = time.Second

// defaultPrefetch is the number of items kept outstanding with the
// workers when New is given a non-positive prefetch,
// matching the reference implementation's fixed priming window.
const defaultPrefetch = 32

// Stage is the per-worker unit of work a Pipeline drives. New's newStage
// argument is called exactly once per worker (the pipeline's analogue of the
// reference implementation's one-time generator setup, the place for any
// expensive or non-shareable state); Process is then called once per
// submitted item, in submission order relative to the same worker, and
// must return exactly one result per call.
type Stage[In, Out any] interface {
	// Process consumes one input item and produces its result. Process
	// must not retain In beyond the call if the caller may reuse or
	// mutate it afterwards.
	Process(In) (Out, error)
}

// StageFunc adapts a plain func into a Stage for callers with no one-time
// setup to perform.
type StageFunc[In, Out any] func(In) (Out, error)

// Process implements Stage.
func (f StageFunc[In, Out]) Process(in In) (Out, error) { return f(in) }

// indexed pairs a work item, or a result, with its position in the
// original submission order.
type indexed[T any] struct {
	n   int
	val T
}

// result is what a worker sends back for each item it processes.
type result[Out any] struct {
	n   int
	out Out
	err error
}

// Pipeline drives numWorkers copies of a Stage, constructed once via
// newStage, over a stream of submitted items, returning results in
// submission order. A zero Pipeline is not usable; construct one with New.
type Pipeline[In, Out any] struct {
	log logging.Logger

	prefetch int

	work chan indexed[In]
	done chan result[Out]
	quit chan struct{}

	stopped []chan struct{}

	wg sync.WaitGroup

	mu      sync.Mutex
	lastErr error
}

// New starts numWorkers workers, each running a Stage built by newStage,
// and waits up to one second for them all to report ready. newStage is
// called once per worker, inside that worker's goroutine before it takes
// any item; it is the place to do whatever setup a single shared Stage
// value couldn't safely do across goroutines.
//
// prefetch bounds how many items Apply has outstanding with the workers
// at once (sent but not yet returned); prefetch <= 0 selects
// defaultPrefetch.
//
// numWorkers <= 1 is accepted and simply runs a single worker; Apply's
// behaviour is observably identical to a purely sequential map in that
// case, which callers can rely on when determinism rather than
// throughput is what matters (e.g. under test).
func New[In, Out any](numWorkers int, prefetch int, log logging.Logger, newStage func() (Stage[In, Out], error)) (*Pipeline[In, Out], error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	if log == nil {
		log = noopLogger{}
	}

	p := &Pipeline[In, Out]{
		log:      log,
		prefetch: prefetch,
		work:     make(chan indexed[In], prefetch),
		done:     make(chan result[Out], prefetch),
		quit:     make(chan struct{}),
		stopped:  make([]chan struct{}, numWorkers),
	}

	ready := make(chan error, numWorkers)
	for i := 0; i < numWorkers; i++ {
		stopped := make(chan struct{})
		p.stopped[i] = stopped
		p.wg.Add(1)
		go p.runWorker(i, newStage, ready, stopped)
	}

	deadline := time.After(startTimeout)
	for i := 0; i < numWorkers; i++ {
		select {
		case err := <-ready:
			if err != nil {
				close(p.quit)
				p.wg.Wait()
				return nil, fmt.Errorf("pipeline: worker setup failed: %w", err)
			}
		case <-deadline:
			close(p.quit)
			return nil, ErrWorkerStartTimeout
		}
	}

	p.log.Debug("pipeline workers started", "count", numWorkers)
	return p, nil
}

// runWorker builds this worker's Stage and then services the shared work
// channel until quit is closed, recovering a panicking Stage so that one
// bad item surfaces as ErrChildStopped rather than taking the whole
// process down.
func (p *Pipeline[In, Out]) runWorker(id int, newStage func() (Stage[In, Out], error), ready chan<- error, stopped chan<- struct{}) {
	defer p.wg.Done()
	defer close(stopped)

	stage, err := newStage()
	ready <- err
	if err != nil {
		return
	}

	for {
		select {
		case <-p.quit:
			return
		case item, ok := <-p.work:
			if !ok {
				return
			}
			if crashed := p.processItem(id, stage, item); crashed {
				// A panicking Stage leaves its goroutine in an unknown
				// state; exit rather than risk processing more items
				// with it, the same way a crashed subprocess in the
				// reference implementation simply stops.
				p.log.Error("worker stopped unexpectedly", "worker", id)
				return
			}
		}
	}
}

// processItem runs one item through stage. It reports crashed if stage
// panicked; the caller (runWorker) then exits without sending a result,
// leaving the worker's stopped channel closed outside of a quit signal -
// the observable signature Apply's anyStopped checks for.
func (p *Pipeline[In, Out]) processItem(id int, stage Stage[In, Out], item indexed[In]) (crashed bool) {
	var out Out
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				crashed = true
			}
		}()
		out, err = stage.Process(item.val)
	}()
	if crashed {
		return true
	}

	select {
	case p.done <- result[Out]{n: item.n, out: out, err: err}:
	case <-p.quit:
	}
	return false
}

// Apply drives every item from in through the pipeline's workers and
// invokes yield, in submission order, once per result. It returns early,
// without calling yield again, the first time a worker stops unexpectedly
// or a Stage returns an error from which the pipeline can't continue;
// Err reports which.
//
// Apply first sends up to prefetch items, then sends one more item each
// time a worker returns a result, mirroring the reference implementation's
// fixed priming window: at most prefetch items are outstanding with the
// workers at once. Results that arrive ahead of an earlier, slower item
// wait in a reorder buffer until that item is delivered; the reorder
// buffer itself is not bounded by prefetch.
func (p *Pipeline[In, Out]) Apply(in []In, yield func(int, Out) error) error {
	next := 0   // index of the next item in `in` still to be sent
	sent := 0   // count of items sent so far
	want := 0   // index of the next result `yield` is waiting for
	pending := make(map[int]Out)

	send := func() bool {
		if next >= len(in) {
			return false
		}
		select {
		case p.work <- indexed[In]{n: next, val: in[next]}:
			next++
			sent++
			return true
		case <-p.quit:
			return false
		}
	}

	for i := 0; i < p.prefetch && send(); i++ {
	}

	for want < sent {
		select {
		case r := <-p.done:
			if r.err != nil {
				p.setErr(r.err)
				return r.err
			}
			pending[r.n] = r.out
			for {
				out, ok := pending[want]
				if !ok {
					break
				}
				delete(pending, want)
				if err := yield(want, out); err != nil {
					p.setErr(err)
					return err
				}
				want++
			}
			send()
		case <-time.After(100 * time.Millisecond):
			if p.anyStopped() {
				p.setErr(ErrChildStopped)
				return ErrChildStopped
			}
		}
	}

	return nil
}

func (p *Pipeline[In, Out]) anyStopped() bool {
	for _, s := range p.stopped {
		select {
		case <-s:
			return true
		default:
		}
	}
	return false
}

func (p *Pipeline[In, Out]) setErr(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// Err returns the error, if any, that ended the most recent Apply call
// early.
func (p *Pipeline[In, Out]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close signals every worker to exit and waits for them to finish. It is
// safe to call Close more than once.
func (p *Pipeline[In, Out]) Close() {
	select {
	case <-p.quit:
		return
	default:
		close(p.quit)
	}
	p.wg.Wait()
}
