package session

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/worldkit/pkg/core"
)

// observers fans events out to subscribers in subscription order. Events are
// delivered synchronously, never while a session lock is held.
type observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(core.Event)
}

func (o *observers) subscribe(fn func(core.Event)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(core.Event))
	}
	id := o.next
	o.next++
	o.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.fns, id)
		})
	}
}

func (o *observers) emit(events ...core.Event) {
	if len(events) == 0 {
		return
	}
	o.mu.Lock()
	ids := slices.Sorted(maps.Keys(o.fns))
	fns := make([]func(core.Event), len(ids))
	for i, id := range ids {
		fns[i] = o.fns[id]
	}
	o.mu.Unlock()

	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}

func newEvent(t core.EventType, world WorldID, entry EntryID) core.Event {
	return core.Event{
		Type:      t,
		World:     string(world),
		Entry:     int(entry),
		Timestamp: time.Now().Unix(),
	}
}
