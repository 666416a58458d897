package events

import "sync"

// AsyncSink decouples event producers from a possibly slow downstream sink.
// Events are buffered on a channel and forwarded by a single goroutine; when
// the buffer is full new events are dropped, counted, and the producer
// returns immediately.
type AsyncSink struct {
	next    Sink
	ch      chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	dropped int64
}

// NewAsyncSink wraps next with a buffered, non-blocking dispatcher.
func NewAsyncSink(next Sink, buffer int) *AsyncSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &AsyncSink{
		next: next,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AsyncSink) run() {
	for ev := range s.ch {
		s.next.Emit(ev)
	}
	close(s.done)
}

// Emit enqueues the event, dropping it if the buffer is full.
func (s *AsyncSink) Emit(ev Event) {
	select {
	case s.ch <- ev:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Dropped returns how many events were discarded due to backpressure.
func (s *AsyncSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close flushes buffered events and stops the dispatcher.
func (s *AsyncSink) Close() {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
}
