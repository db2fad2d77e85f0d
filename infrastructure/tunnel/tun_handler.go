package tunnel

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"cdtun/application"
	"cdtun/infrastructure/settings"
)

// TunHandler is the egress path: the tun interface is polled on a short
// tick and every pending packet is written to the peer stream.
type TunHandler struct {
	ctx      context.Context
	device   application.TunDevice
	conn     io.Writer
	counters *Counters
	logger   application.Logger
}

func NewTunHandler(
	ctx context.Context,
	device application.TunDevice,
	conn io.Writer,
	counters *Counters,
	logger application.Logger,
) *TunHandler {
	return &TunHandler{
		ctx:      ctx,
		device:   device,
		conn:     conn,
		counters: counters,
		logger:   logger,
	}
}

// HandleTun polls until cancelled or the interface is closed. Each tick
// drains the interface so a burst is not smeared across poll intervals.
func (h *TunHandler) HandleTun() error {
	ticker := time.NewTicker(settings.PollInterval)
	defer ticker.Stop()

	buffer := make([]byte, settings.ReadBudget)
	for {
		select {
		case <-h.ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			n, err := h.device.Read(buffer)
			if err != nil {
				if errors.Is(err, application.ErrAlreadyClosed) || h.ctx.Err() != nil {
					return nil
				}
				h.logger.Printf("failed to read from %s: %v", h.device.Name(), err)
				return err
			}
			if n == 0 {
				break
			}

			if _, writeErr := h.conn.Write(buffer[:n]); writeErr != nil {
				if h.ctx.Err() != nil || errors.Is(writeErr, net.ErrClosed) {
					return nil
				}
				h.logger.Printf("stream write failed: %v", writeErr)
				return writeErr
			}
			h.counters.recordEgress(n)
		}
	}
}
