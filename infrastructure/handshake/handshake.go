package handshake

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"cdtun/application"
	"cdtun/infrastructure/settings"
)

// Request is the single JSON message the client sends.
type Request struct {
	Type string `json:"type"`
	MTU  int    `json:"mtu"`
}

const requestType = "clientHandshakeRequest"

// Response is the server's JSON reply. Only the fields below are enforced;
// unknown fields are ignored.
type Response struct {
	ClientParameters struct {
		Address string `json:"address"`
		MTU     int    `json:"mtu"`
	} `json:"clientParameters"`
	ServerAddress string  `json:"serverAddress"`
	ServerRSDPort *uint16 `json:"serverRSDPort"`
}

// Exchange writes the handshake request to conn and blocks until the full
// framed response has arrived, or the handshake deadline passes. The read
// deadline is installed for the whole exchange and removed before returning.
// No byte past the response frame is read, so data the peer sends right
// after it stays on conn for the forwarder.
func Exchange(conn net.Conn, mtu int) (application.TunnelParameters, error) {
	payload, err := json.Marshal(Request{Type: requestType, MTU: mtu})
	if err != nil {
		return application.TunnelParameters{}, fmt.Errorf("marshal handshake request: %w", err)
	}
	frame, err := EncodeFrame(payload)
	if err != nil {
		return application.TunnelParameters{}, err
	}

	deadline := time.Now().Add(settings.HandshakeTimeout)
	if deadlineErr := conn.SetReadDeadline(deadline); deadlineErr != nil {
		return application.TunnelParameters{}, fmt.Errorf("set handshake deadline: %w", deadlineErr)
	}
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	if _, writeErr := conn.Write(frame); writeErr != nil {
		return application.TunnelParameters{}, fmt.Errorf("write handshake request: %w", writeErr)
	}

	var (
		accumulator []byte
		chunk       = make([]byte, 4096)
	)
	for {
		want := headerSize
		if len(accumulator) >= headerSize {
			want += int(binary.BigEndian.Uint16(accumulator[lengthStart:headerSize]))
		}
		n, readErr := conn.Read(chunk[:min(len(chunk), want-len(accumulator))])
		if n > 0 {
			accumulator = append(accumulator, chunk[:n]...)
			response, consumed, decodeErr := DecodeFrame(accumulator)
			if decodeErr != nil {
				return application.TunnelParameters{}, decodeErr
			}
			if consumed > 0 {
				return parseResponse(response)
			}
		}
		if readErr != nil {
			var netErr net.Error
			if errors.As(readErr, &netErr) && netErr.Timeout() {
				return application.TunnelParameters{}, fmt.Errorf("%w: no handshake response within %s", application.ErrHandshakeTimeout, settings.HandshakeTimeout)
			}
			if errors.Is(readErr, io.EOF) {
				return application.TunnelParameters{}, fmt.Errorf("%w: stream closed before handshake response", application.ErrProtocol)
			}
			return application.TunnelParameters{}, fmt.Errorf("read handshake response: %w", readErr)
		}
	}
}

func parseResponse(payload []byte) (application.TunnelParameters, error) {
	var response Response
	if err := json.Unmarshal(payload, &response); err != nil {
		return application.TunnelParameters{}, fmt.Errorf("%w: malformed handshake response: %v", application.ErrProtocol, err)
	}

	address, err := application.ParseAddress(response.ClientParameters.Address)
	if err != nil {
		return application.TunnelParameters{}, fmt.Errorf("%w: bad client address %q", application.ErrProtocol, response.ClientParameters.Address)
	}
	serverAddress, err := application.ParseAddress(response.ServerAddress)
	if err != nil {
		return application.TunnelParameters{}, fmt.Errorf("%w: bad server address %q", application.ErrProtocol, response.ServerAddress)
	}
	if mtuErr := application.ValidateMTU(response.ClientParameters.MTU); mtuErr != nil {
		return application.TunnelParameters{}, fmt.Errorf("%w: bad MTU %d", application.ErrProtocol, response.ClientParameters.MTU)
	}

	params := application.TunnelParameters{
		Address:       address,
		MTU:           response.ClientParameters.MTU,
		ServerAddress: serverAddress,
	}
	if response.ServerRSDPort != nil {
		params.RSDPort = *response.ServerRSDPort
	}
	return params, nil
}
