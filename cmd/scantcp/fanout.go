package main

import "sync"

const subBuffer = 16

// fanout distributes published values to any number of subscribers.
// Subscribers that fall more than subBuffer values behind lose frames
// rather than stalling the publisher.
type fanout[T any] struct {
	mut  sync.Mutex
	subs map[chan T]struct{}
}

func newFanout[T any]() *fanout[T] {
	return &fanout[T]{subs: make(map[chan T]struct{})}
}

func (f *fanout[T]) Publish(val T) {
	f.mut.Lock()
	defer f.mut.Unlock()
	for ch := range f.subs {
		select {
		case ch <- val:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel along with
// a cancel function. Cancel closes the channel; it must be called exactly
// once.
func (f *fanout[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, subBuffer)
	f.mut.Lock()
	f.subs[ch] = struct{}{}
	f.mut.Unlock()

	cancel := func() {
		f.mut.Lock()
		delete(f.subs, ch)
		f.mut.Unlock()
		close(ch)
	}
	return ch, cancel
}
