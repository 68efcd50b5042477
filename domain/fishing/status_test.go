package fishing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatusChannel_SnapshotReflectsLatestPublish(t *testing.T) {
	ch := NewStatusChannel()
	ch.Publish(Status{Phase: PhaseWaitingInitial, Rounds: 1})
	ch.Publish(Status{Phase: PhaseFishHooked, Rounds: 1})

	st := ch.Snapshot()
	require.Equal(t, PhaseFishHooked, st.Phase)
	require.Equal(t, uint64(1), st.Rounds)
}

func TestStatusChannel_SubscriberReceivesUpdates(t *testing.T) {
	ch := NewStatusChannel()
	var mu sync.Mutex
	var got []Phase
	done := make(chan struct{})
	handle := ch.Subscribe(func(st Status) {
		mu.Lock()
		got = append(got, st.Phase)
		if len(got) == 2 {
			close(done)
		}
		mu.Unlock()
	})
	defer ch.Unsubscribe(handle)

	ch.Publish(Status{Phase: PhaseWaitingInitial})
	ch.Publish(Status{Phase: PhaseWaitingHook})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive updates")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Phase{PhaseWaitingInitial, PhaseWaitingHook}, got)
}

func TestStatusChannel_SlowSubscriberNeverBlocksWriter(t *testing.T) {
	ch := NewStatusChannel()
	block := make(chan struct{})
	ch.Subscribe(func(Status) { <-block })

	// Publish far more snapshots than the subscriber buffer holds; the
	// writer must return promptly every time.
	begin := time.Now()
	for i := 0; i < subBuffer*10; i++ {
		ch.Publish(Status{Rounds: uint64(i)})
	}
	require.Less(t, time.Since(begin), time.Second)
	close(block)
}

func TestStatusChannel_DropOldestKeepsNewest(t *testing.T) {
	ch := NewStatusChannel()
	release := make(chan struct{})
	var mu sync.Mutex
	var last uint64
	ch.Subscribe(func(st Status) {
		<-release
		mu.Lock()
		if st.Rounds > last {
			last = st.Rounds
		}
		mu.Unlock()
	})

	for i := 1; i <= subBuffer*4; i++ {
		ch.Publish(Status{Rounds: uint64(i)})
	}
	close(release)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		v := last
		mu.Unlock()
		if v == uint64(subBuffer*4) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	t.Fatalf("newest snapshot lost under backpressure; last seen %d", last)
}

func TestStatusChannel_UnsubscribeStopsDelivery(t *testing.T) {
	ch := NewStatusChannel()
	var mu sync.Mutex
	count := 0
	handle := ch.Subscribe(func(Status) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	ch.Publish(Status{})
	time.Sleep(50 * time.Millisecond)
	ch.Unsubscribe(handle)
	ch.Unsubscribe(handle) // second call is a no-op

	mu.Lock()
	before := count
	mu.Unlock()
	ch.Publish(Status{})
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, before, count)
}
