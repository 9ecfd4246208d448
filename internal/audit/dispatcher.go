package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering. A disabled Config yields a nil
// Dispatcher, which is safe to use and discards everything.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards non-lifecycle events when the queue is full.
	// Lifecycle events always wait for room.
	DropIfFull bool
	// Exclude lists kinds that are never queued. Lifecycle kinds are
	// ignored here.
	Exclude []Kind
}

// Dispatcher forwards events to a sink from a single worker goroutine, in
// the order they were accepted.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool
	skip       [kindCount]bool

	mu      sync.RWMutex
	closed  bool
	queue   chan Event
	stopped chan struct{}

	dropped [kindCount]atomic.Uint64
}

// NewDispatcher starts the worker. Callers must Close it.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan Event, cfg.BufferSize),
		stopped:    make(chan struct{}),
	}
	for _, k := range cfg.Exclude {
		if k.Valid() && !k.Lifecycle() {
			d.skip[k] = true
		}
	}

	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.stopped)
	for ev := range d.queue {
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit queues event. Unknown and excluded kinds are ignored. A full queue
// drops the event when DropIfFull applies to its kind; otherwise Emit waits
// for room or for ctx to end.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || !event.Kind.Valid() || d.skip[event.Kind] {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull && !event.Kind.Lifecycle() {
		select {
		case d.queue <- event:
		default:
			d.dropped[event.Kind].Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped[event.Kind].Add(1)
	}
}

// Close stops accepting events and returns once every accepted event has
// reached the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Pending reports how many events are queued but not yet delivered.
func (d *Dispatcher) Pending() int {
	if d == nil {
		return 0
	}
	return len(d.queue)
}

// Dropped reports how many events were discarded, across all kinds.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	var n uint64
	for i := range d.dropped {
		n += d.dropped[i].Load()
	}
	return n
}

// DroppedByKind reports the discard count for each kind that lost events.
func (d *Dispatcher) DroppedByKind() map[Kind]uint64 {
	out := make(map[Kind]uint64)
	if d == nil {
		return out
	}
	for _, k := range Kinds() {
		if n := d.dropped[k].Load(); n > 0 {
			out[k] = n
		}
	}
	return out
}
