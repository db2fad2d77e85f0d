package tunnel

import (
	"context"
	"errors"
	"io"
	"net"

	"cdtun/application"
	"cdtun/infrastructure/fanout"
	"cdtun/infrastructure/network/demux"
	"cdtun/infrastructure/network/ipv6"
	"cdtun/infrastructure/settings"
)

// TransportHandler is the ingress path: peer bytes are cut into IPv6
// datagrams, written to the tun interface and published to subscribers.
type TransportHandler struct {
	ctx        context.Context
	conn       io.Reader
	device     application.TunDevice
	demux      *demux.Demultiplexer
	dispatcher *fanout.Dispatcher
	counters   *Counters
	logger     application.Logger
}

func NewTransportHandler(
	ctx context.Context,
	conn io.Reader,
	device application.TunDevice,
	demultiplexer *demux.Demultiplexer,
	dispatcher *fanout.Dispatcher,
	counters *Counters,
	logger application.Logger,
) *TransportHandler {
	return &TransportHandler{
		ctx:        ctx,
		conn:       conn,
		device:     device,
		demux:      demultiplexer,
		dispatcher: dispatcher,
		counters:   counters,
		logger:     logger,
	}
}

// HandleTransport runs until the stream ends, the context is cancelled or
// the interface is closed. Any other failed interface write is logged and
// forwarding continues; one bad packet must not take the tunnel down.
func (h *TransportHandler) HandleTransport() error {
	buffer := make([]byte, settings.ReadBudget)
	for {
		select {
		case <-h.ctx.Done():
			return nil
		default:
		}

		n, err := h.conn.Read(buffer)
		if n > 0 {
			for _, datagram := range h.demux.Feed(buffer[:n]) {
				if _, writeErr := h.device.Write(datagram); writeErr != nil {
					if errors.Is(writeErr, application.ErrAlreadyClosed) {
						return nil
					}
					h.logger.Printf("failed to write packet to %s: %v", h.device.Name(), writeErr)
				}
				h.counters.recordIngress(len(datagram))
				if record, ok := ipv6.ParseRecord(datagram); ok {
					h.dispatcher.Publish(record)
				}
			}
		}
		if err != nil {
			if h.ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			h.logger.Printf("stream read failed: %v", err)
			return err
		}
	}
}
