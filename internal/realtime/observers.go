package realtime

import "sync"

// observers is an ordered list of callbacks. Every callback is invoked on
// every notify, in subscription order.
type observers[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// add appends fn and returns a function that removes it. The returned
// function is idempotent.
func (o *observers[T]) add(fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs = append(o.subs, subscription[T]{id: id, fn: fn})
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// notify calls every subscriber with v. Subscribers added or removed while
// notifying take effect on the next notify.
func (o *observers[T]) notify(v T) {
	o.mu.Lock()
	subs := o.subs
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}
