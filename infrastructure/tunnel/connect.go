package tunnel

import (
	"net"

	"cdtun/application"
	"cdtun/infrastructure/handshake"
	"cdtun/infrastructure/settings"
)

// Connect performs the handshake on conn, brings the tunnel interface up
// with the negotiated parameters and starts forwarding. The returned session
// is registered for signal-driven shutdown; Close releases everything.
func Connect(conn net.Conn, manager application.ClientTunManager, logger application.Logger) (*Session, error) {
	params, err := handshake.Exchange(conn, settings.RequestedMTU)
	if err != nil {
		return nil, err
	}

	session := NewSession(manager, logger)
	if setupErr := session.SetupInterface(params); setupErr != nil {
		return nil, setupErr
	}
	if startErr := session.StartForwarding(conn); startErr != nil {
		_ = session.Stop()
		return nil, startErr
	}

	registerSession(session)
	logger.Printf("tunnel established: server %s, mtu %d", params.ServerAddress, params.MTU)
	return session, nil
}
