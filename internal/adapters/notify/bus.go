// Package notify fans event notifications out to downstream collaborators
// (dashboard distribution, logging, alerting) without the core depending on
// their concrete types.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/domain/model"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/metrics"
)

// Kind tags a notification variant.
type Kind string

// Notification kinds emitted by the event store.
const (
	KindDetected   Kind = "event_detected"
	KindMerged     Kind = "event_merged"
	KindCorrelated Kind = "events_correlated"
	KindVerified   Kind = "event_verified"
)

// Notification is a tagged message about one or two tactical events. Event
// is a defensive copy; subscribers may keep it.
type Notification struct {
	Kind     Kind
	EventIDs []string
	Event    *model.TacticalEvent // primary event payload, nil for correlated pairs
	Relation string               // set for KindCorrelated
	At       time.Time
}

const defaultBufferSize = 256

// Bus is an in-memory publish/subscribe fan-out with bounded per-subscriber
// buffers. Publish never blocks: a subscriber that falls behind loses
// messages (counted), it cannot stall ingestion or detection.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Notification
	nextID  int
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber channel buffer.
func WithBufferSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// NewBus creates a notification bus with configuration options.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[int]chan Notification),
		buffer: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function. The channel is closed on cancel or when the bus closes.
func (b *Bus) Subscribe() (<-chan Notification, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Notification)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Notification, b.buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the notification to every subscriber without blocking.
func (b *Bus) Publish(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	metrics.RecordNotificationPublished(string(n.Kind))
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.dropped.Add(1)
			metrics.RecordNotificationDropped()
		}
	}
}

// Dropped returns how many notifications were lost to full subscriber
// buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
