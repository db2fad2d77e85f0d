package fanout

import (
	"context"
	"io"
	"sync"

	"cdtun/application"
)

// PacketStream is the pull-style subscriber: a private unbounded FIFO fed by
// the dispatcher and drained by a single reader. Slow readers grow the queue
// without bound; that is a documented trade for never blocking the
// forwarding path.
type PacketStream struct {
	mu     sync.Mutex
	queue  []application.PacketRecord
	notify chan struct{}
	done   chan struct{}
	closed bool
	detach func()
}

func newPacketStream() *PacketStream {
	return &PacketStream{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// OnPacket enqueues the record; it never blocks the publisher.
func (s *PacketStream) OnPacket(record application.PacketRecord) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, record)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next queued record in arrival order. Once the stream is
// terminated, buffered records are drained first and io.EOF follows.
func (s *PacketStream) Next(ctx context.Context) (application.PacketRecord, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			record := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return record, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return application.PacketRecord{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return application.PacketRecord{}, ctx.Err()
		case <-s.notify:
		case <-s.done:
		}
	}
}

// Close detaches the stream from its dispatcher and terminates iteration.
func (s *PacketStream) Close() {
	if s.detach != nil {
		s.detach()
	}
	s.terminate()
}

func (s *PacketStream) terminate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}
