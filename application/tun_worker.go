package application

// TunWorker does the TUN->CONN and CONN->TUN operations
type TunWorker interface {
	// HandleTun forwards packets read off the tun interface to the peer.
	HandleTun() error
	// HandleTransport forwards peer bytes to the tun interface.
	HandleTransport() error
}
