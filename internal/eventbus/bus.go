// Package eventbus carries in-process signals between the monitor, the
// notifier and the app's debug tap.
//
// The bus is deliberately small: no topic registry, no replay, no
// persistence. Publish never blocks, so a stalled subscriber can lose
// events; anything that must not be lost (the audit trail, the seen set)
// is written by its owner directly and only mirrored here.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is one bus signal. Type is one of the Topic constants; Data is the
// payload struct owned by the publishing package.
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns the in-memory fanout used by the app. It owns no goroutines;
// delivery happens on the publisher's stack.
func New() Bus {
	return &fanout{subs: map[uint64]chan Event{}}
}

type fanout struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	next atomic.Uint64
}

func (f *fanout) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	// Snapshot under the read lock; sends happen outside it.
	f.mu.RLock()
	targets := make([]chan Event, 0, len(f.subs))
	for _, ch := range f.subs {
		targets = append(targets, ch)
	}
	f.mu.RUnlock()

	for _, ch := range targets {
		deliver(ch, e)
	}
}

// deliver drops the event when the subscriber's buffer is full and absorbs
// the send-on-closed panic from a concurrent unsubscribe.
func deliver(ch chan Event, e Event) {
	defer func() { _ = recover() }()
	select {
	case ch <- e:
	default:
	}
}

func (f *fanout) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := f.next.Add(1)

	f.mu.Lock()
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}
