package engine

import "sync"

const snapshotBufferSize = 4

// Subscription delivers successive filtered snapshots of one projection.
// The current snapshot is queued at subscribe time, so a new subscriber
// never waits for the next mutation to see state.
type Subscription[T any] struct {
	// C receives a new snapshot after every mutation.
	C <-chan T
	// Done is closed when the subscription ends (Close, or engine shutdown).
	Done <-chan struct{}

	ch        chan T
	doneCh    chan struct{}
	closeOnce sync.Once
	cancel    func(*Subscription[T])
}

func newSubscription[T any](cancel func(*Subscription[T])) *Subscription[T] {
	s := &Subscription[T]{
		ch:     make(chan T, snapshotBufferSize),
		doneCh: make(chan struct{}),
		cancel: cancel,
	}
	s.C = s.ch
	s.Done = s.doneCh
	return s
}

// Close detaches the subscription from the engine and closes Done. Other
// subscribers are unaffected. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel(s)
		}
		close(s.doneCh)
	})
}

// send queues a snapshot without blocking. When the subscriber lags and the
// buffer is full, the oldest queued snapshot is evicted so the channel
// always converges to the latest state.
func (s *Subscription[T]) send(snapshot T) {
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}
