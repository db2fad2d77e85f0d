package fanout

import (
	"sync"

	"cdtun/application"
)

// Dispatcher delivers parsed packet records to all current subscribers.
// Publish is only ever called from the forwarder's ingress path, so records
// reach every consumer in parse order; the lock exists for subscriber
// add/remove racing against delivery.
type Dispatcher struct {
	mu        sync.Mutex
	consumers []application.PacketConsumer
	closed    bool
	logger    application.Logger
}

func NewDispatcher(logger application.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a push consumer. Registration on a closed dispatcher
// is a no-op.
func (d *Dispatcher) Subscribe(consumer application.PacketConsumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.consumers = append(d.consumers, consumer)
}

// Unsubscribe removes a previously registered consumer by identity.
func (d *Dispatcher) Unsubscribe(consumer application.PacketConsumer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.consumers {
		if c == consumer {
			d.consumers = append(d.consumers[:i], d.consumers[i+1:]...)
			return
		}
	}
}

// Publish invokes every consumer synchronously. A panicking consumer is
// logged and does not starve the remaining ones.
func (d *Dispatcher) Publish(record application.PacketRecord) {
	d.mu.Lock()
	consumers := make([]application.PacketConsumer, len(d.consumers))
	copy(consumers, d.consumers)
	d.mu.Unlock()

	for _, consumer := range consumers {
		d.deliver(consumer, record)
	}
}

func (d *Dispatcher) deliver(consumer application.PacketConsumer, record application.PacketRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("packet consumer panicked: %v", r)
		}
	}()
	consumer.OnPacket(record)
}

// Stream registers a pull consumer with a private unbounded queue. The
// returned stream yields records in arrival order until the dispatcher is
// closed or the stream itself is.
func (d *Dispatcher) Stream() *PacketStream {
	stream := newPacketStream()
	stream.detach = func() { d.Unsubscribe(stream) }
	d.Subscribe(stream)

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		stream.terminate()
	}
	return stream
}

// Close drops every subscriber and terminates all pull streams. Pending
// records queued on streams stay readable; no new records are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	consumers := d.consumers
	d.consumers = nil
	d.closed = true
	d.mu.Unlock()

	for _, consumer := range consumers {
		if stream, ok := consumer.(*PacketStream); ok {
			stream.terminate()
		}
	}
}
