package tunnel

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cdtun/application"
	"cdtun/infrastructure/fanout"
	"cdtun/infrastructure/network/demux"
)

// Session states; transitions are strictly one-way and a stopped session is
// not reusable.
const (
	StateCreated int32 = iota
	StateConfigured
	StateForwarding
	StateStopping
	StateStopped
)

// Session owns one tunnel: the tun device, the peer byte stream, the
// demultiplexer and the subscriber fanout. Cancellation is monotonic and
// cleanup runs exactly once no matter how many actors initiate it.
type Session struct {
	manager application.ClientTunManager
	logger  application.Logger

	ctx    context.Context
	cancel context.CancelFunc

	demux      *demux.Demultiplexer
	dispatcher *fanout.Dispatcher
	counters   Counters

	state    atomic.Int32
	stopOnce sync.Once
	stopErr  error

	mu     sync.Mutex
	device application.TunDevice
	conn   net.Conn
	params application.TunnelParameters
}

func NewSession(manager application.ClientTunManager, logger application.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		manager:    manager,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		demux:      demux.NewDemultiplexer(),
		dispatcher: fanout.NewDispatcher(logger),
	}
}

// SetupInterface opens the tun device, assigns the negotiated address and
// MTU and programs the host route to the server. Partial state is torn down
// by the platform manager before an error surfaces.
func (s *Session) SetupInterface(params application.TunnelParameters) error {
	if !s.state.CompareAndSwap(StateCreated, StateConfigured) {
		return fmt.Errorf("%w: session is not in created state", application.ErrAlreadyClosed)
	}

	device, err := s.manager.CreateTunDevice(params)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.device = device
	s.params = params
	s.mu.Unlock()
	return nil
}

// StartForwarding couples the peer stream and the tun device. Either
// direction ending, for any reason, stops the whole session.
func (s *Session) StartForwarding(conn net.Conn) error {
	if !s.state.CompareAndSwap(StateConfigured, StateForwarding) {
		return fmt.Errorf("%w: session is not configured", application.ErrAlreadyClosed)
	}

	s.mu.Lock()
	s.conn = conn
	device := s.device
	s.mu.Unlock()

	worker := NewWorker(
		NewTunHandler(s.ctx, device, conn, &s.counters, s.logger),
		NewTransportHandler(s.ctx, conn, device, s.demux, s.dispatcher, &s.counters, s.logger),
	)
	go s.forward(worker)
	return nil
}

func (s *Session) forward(worker application.TunWorker) {
	var group errgroup.Group
	group.Go(func() error {
		defer func() { _ = s.Stop() }()
		return worker.HandleTun()
	})
	group.Go(func() error {
		defer func() { _ = s.Stop() }()
		return worker.HandleTransport()
	})
	if err := group.Wait(); err != nil {
		s.logger.Printf("tunnel stopped: %v", err)
	}
}

// Stop is idempotent: concurrent and repeated calls all observe the single
// cleanup. It cancels both forwarding loops, destroys the stream, clears
// buffered state and subscribers, and closes the tun device.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.state.Store(StateStopping)
		s.cancel()

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}

		s.demux.Reset()
		s.dispatcher.Close()

		if err := s.manager.DisposeTunDevices(); err != nil {
			s.logger.Printf("failed to dispose tun device: %v", err)
			s.stopErr = err
		}

		unregisterSession(s)
		s.state.Store(StateStopped)
	})
	return s.stopErr
}

// Close stops the session; the peer stream is closed as part of cleanup.
func (s *Session) Close() error {
	return s.Stop()
}

// Done is closed once the session begins stopping.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// State reports the current lifecycle state.
func (s *Session) State() int32 {
	return s.state.Load()
}

// ServerAddress is the peer's in-tunnel address negotiated at handshake.
func (s *Session) ServerAddress() netip.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.ServerAddress
}

// Parameters returns the negotiated tunnel parameters.
func (s *Session) Parameters() application.TunnelParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Subscribe registers a push consumer for parsed TCP/UDP packets.
func (s *Session) Subscribe(consumer application.PacketConsumer) {
	s.dispatcher.Subscribe(consumer)
}

func (s *Session) Unsubscribe(consumer application.PacketConsumer) {
	s.dispatcher.Unsubscribe(consumer)
}

// PacketStream opens a pull-style subscription; it terminates when the
// session stops.
func (s *Session) PacketStream() *fanout.PacketStream {
	return s.dispatcher.Stream()
}

// Counters reports forwarded traffic totals.
func (s *Session) Counters() CountersSnapshot {
	return s.counters.Snapshot()
}

// InterfaceStats reads the OS byte counters of the tunnel interface.
func (s *Session) InterfaceStats() (application.TrafficStats, error) {
	return s.manager.InterfaceStats()
}
