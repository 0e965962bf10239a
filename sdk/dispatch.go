package sdk

import (
	"errors"
	"runtime/debug"
	"sync"

	"github.com/kindredapp/kindred/pkg/logger"
)

var (
	errNoDispatcher      = errors.New("dispatcher not initialized")
	errDispatcherStopped = errors.New("client closed")
	errPanicked          = errors.New("call panicked")
)

// dispatcher runs queued funcs one at a time on its own goroutine.
//
// Mobile bindings may call exported methods from any thread, and listener
// callbacks must never run on the reconciler goroutine; both go through a
// dispatcher.
type dispatcher struct {
	q    chan func()
	done chan struct{}

	mu      sync.RWMutex
	stopped bool
}

func newDispatcher(queueSize int) *dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &dispatcher{
		q:    make(chan func(), queueSize),
		done: make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		for fn := range d.q {
			runRecovered(fn)
		}
	}()
	return d
}

// runRecovered keeps a panicking listener from killing the dispatcher.
func runRecovered(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("sdk: recovered panic: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// enqueue holds the read lock while sending so stop cannot close q under it.
func (d *dispatcher) enqueue(fn func()) error {
	if d == nil {
		return errNoDispatcher
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return errDispatcherStopped
	}
	d.q <- fn
	return nil
}

// do queues fn without waiting for it.
func (d *dispatcher) do(fn func()) error {
	if fn == nil {
		return nil
	}
	return d.enqueue(fn)
}

// call runs fn on the dispatcher and waits for its result. It must not be
// called from a func already running on d.
func (d *dispatcher) call(fn func() error) error {
	if fn == nil {
		return nil
	}
	errc := make(chan error, 1)
	run := func() {
		err := errPanicked
		defer func() { errc <- err }()
		err = fn()
	}
	if err := d.enqueue(run); err != nil {
		return err
	}
	return <-errc
}

// stop runs everything already queued, then ends the goroutine. Later do and
// call return an error. stop is idempotent.
func (d *dispatcher) stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.q)
	}
	d.mu.Unlock()
	<-d.done
}
