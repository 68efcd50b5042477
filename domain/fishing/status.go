package fishing

import (
	"sync"

	"github.com/google/uuid"
)

// subBuffer is the per-subscriber queue depth. When a subscriber callback
// cannot keep up, the oldest queued snapshot is dropped; the writer never
// blocks.
const subBuffer = 8

type statusSub struct {
	ch   chan Status
	quit chan struct{}
}

// StatusChannel broadcasts controller status snapshots to observers.
// Single writer (the controller), many readers. Each subscriber gets a
// dedicated delivery goroutine so callbacks stay off the control thread.
type StatusChannel struct {
	mu   sync.RWMutex
	cur  Status
	subs map[string]*statusSub
}

// NewStatusChannel returns an empty channel with a zero-value snapshot.
func NewStatusChannel() *StatusChannel {
	return &StatusChannel{subs: make(map[string]*statusSub)}
}

// Publish stores st as the latest snapshot and queues it to every subscriber.
// Called only from the controller, right after it builds the snapshot under
// its lock; the lock is released before Publish runs.
func (s *StatusChannel) Publish(st Status) {
	s.mu.Lock()
	s.cur = st
	subs := make([]*statusSub, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- st:
		default:
			// Full: drop the oldest queued snapshot, then retry once.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- st:
			default:
			}
		}
	}
}

// Snapshot returns the latest published status.
func (s *StatusChannel) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Subscribe registers fn to be invoked on every published snapshot and
// returns a handle for Unsubscribe. fn runs on a dedicated goroutine.
func (s *StatusChannel) Subscribe(fn func(Status)) string {
	sub := &statusSub{ch: make(chan Status, subBuffer), quit: make(chan struct{})}
	id := uuid.NewString()
	s.mu.Lock()
	s.subs[id] = sub
	s.mu.Unlock()

	go func() {
		for {
			select {
			case st := <-sub.ch:
				fn(st)
			case <-sub.quit:
				return
			}
		}
	}()
	return id
}

// Unsubscribe stops delivery for the given handle. Safe to call twice.
func (s *StatusChannel) Unsubscribe(handle string) {
	s.mu.Lock()
	sub, ok := s.subs[handle]
	if ok {
		delete(s.subs, handle)
	}
	s.mu.Unlock()
	if ok {
		close(sub.quit)
	}
}

// Close terminates all subscriber goroutines.
func (s *StatusChannel) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = make(map[string]*statusSub)
	s.mu.Unlock()
	for _, sub := range subs {
		close(sub.quit)
	}
}

var _ StatusSource = (*StatusChannel)(nil)
