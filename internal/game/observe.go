// internal/game/observe.go
//
// Listener list shared by Session and ScoreResult.
// Listeners run synchronously after a change with no state lock held.

package game

import "sync"

// observers is a synchronous listener list. Listeners are called in
// registration order on the goroutine that triggered the change.
type observers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    []listener[T]
}

type listener[T any] struct {
	id int
	fn func(T)
}

// add registers fn and returns a func that removes it again.
func (o *observers[T]) add(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextID++
	id := o.nextID
	o.fns = append(o.fns, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			for i, l := range o.fns {
				if l.id == id {
					o.fns = append(o.fns[:i:i], o.fns[i+1:]...)
					return
				}
			}
		})
	}
}

// notify delivers v to a copy of the listener list so listeners may
// register, cancel, or call back into their source without deadlocking.
func (o *observers[T]) notify(v T) {
	o.mu.Lock()
	fns := make([]func(T), len(o.fns))
	for i, l := range o.fns {
		fns[i] = l.fn
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
