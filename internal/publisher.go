package internal

import (
	"slices"
	"sync"
	"sync/atomic"
)

var publisherUID atomic.Uint64

// Publisher is the notification source of one reactive cell.
// It holds the observers subscribed to the cell, in subscription order.
type Publisher struct {
	id  uint64
	key string

	mu   sync.Mutex
	subs []*Observer
}

// NewPublisher creates a publisher. The key is only used for debug events.
func NewPublisher(key string) *Publisher {
	return &Publisher{
		id:  publisherUID.Add(1),
		key: key,
	}
}

func (p *Publisher) ID() uint64 { return p.id }

func (p *Publisher) Key() string { return p.key }

// AddSub subscribes an observer. Subscribing twice is a no-op.
func (p *Publisher) AddSub(o *Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if slices.Contains(p.subs, o) {
		return
	}
	p.subs = append(p.subs, o)
}

// RemoveSub unsubscribes an observer, if present.
func (p *Publisher) RemoveSub(o *Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := slices.Index(p.subs, o); i >= 0 {
		p.subs = slices.Delete(p.subs, i, i+1)
	}
}

// Subs returns a snapshot of the subscribers.
func (p *Publisher) Subs() []*Observer {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.subs)
}

// Depend links the observer currently evaluating on this goroutine to the publisher.
// It is the hook called by the instrumentation layer on every tracked read.
func (p *Publisher) Depend() {
	GetRuntime().tracker.Track(p)
}

// Notify tells every subscriber that the cell changed.
// A snapshot is iterated so subscribers may unsubscribe (or tear down) while being notified.
// The whole notification is a single turn: default observers are flushed once it returns.
func (p *Publisher) Notify() {
	subs := p.Subs()
	if len(subs) == 0 {
		return
	}

	r := GetRuntime()
	if !r.config.Async {
		// no batching, so make the order match a flush
		slices.SortFunc(subs, compareObservers)
	}

	r.Batch(func() {
		for _, o := range subs {
			o.trigger(p)
			o.Update()
		}
	})
}
