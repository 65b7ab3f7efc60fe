package engine

import (
	"testing"
)

func TestSubscription_SendAndReceive(t *testing.T) {
	sub := newSubscription[int](nil)

	sub.send(1)
	sub.send(2)

	if got := <-sub.C; got != 1 {
		t.Errorf("first receive = %d, want 1", got)
	}
	if got := <-sub.C; got != 2 {
		t.Errorf("second receive = %d, want 2", got)
	}
}

func TestSubscription_EvictsOldestWhenFull(t *testing.T) {
	sub := newSubscription[int](nil)

	for i := 1; i <= snapshotBufferSize+3; i++ {
		sub.send(i)
	}

	// The channel holds the most recent snapshotBufferSize values; the
	// newest is always among them.
	var last int
	for {
		select {
		case last = <-sub.C:
			continue
		default:
		}
		break
	}
	if last != snapshotBufferSize+3 {
		t.Errorf("last buffered value = %d, want %d", last, snapshotBufferSize+3)
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	calls := 0
	sub := newSubscription[int](func(*Subscription[int]) { calls++ })

	sub.Close()
	sub.Close()

	<-sub.Done
	if calls != 1 {
		t.Errorf("cancel calls = %d, want 1", calls)
	}
}
