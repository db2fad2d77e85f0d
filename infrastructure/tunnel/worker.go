package tunnel

import (
	"cdtun/application"
)

// Worker bundles the two forwarding directions of one tunnel.
type Worker struct {
	tun       *TunHandler
	transport *TransportHandler
}

func NewWorker(tun *TunHandler, transport *TransportHandler) application.TunWorker {
	return &Worker{tun: tun, transport: transport}
}

func (w *Worker) HandleTun() error {
	return w.tun.HandleTun()
}

func (w *Worker) HandleTransport() error {
	return w.transport.HandleTransport()
}
