package handshake

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"cdtun/application"
)

// Control frames are framed as an 8-byte ASCII magic, a big-endian uint16
// payload length, and that many bytes of UTF-8 JSON.
const (
	Magic       = "CDTunnel"
	headerSize  = len(Magic) + 2
	maxPayload  = 0xFFFF
	lengthStart = len(Magic)
)

// EncodeFrame wraps payload in a control frame.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, fmt.Errorf("%w: handshake payload of %d bytes exceeds %d", application.ErrInvalidArgument, len(payload), maxPayload)
	}
	frame := make([]byte, headerSize+len(payload))
	copy(frame, Magic)
	binary.BigEndian.PutUint16(frame[lengthStart:headerSize], uint16(len(payload)))
	copy(frame[headerSize:], payload)
	return frame, nil
}

// DecodeFrame attempts to cut one control frame off the front of buf.
// It returns the payload and the number of consumed bytes, or (nil, 0, nil)
// when buf does not yet hold a complete frame. A wrong magic is a protocol
// error: the stream cannot recover from it.
func DecodeFrame(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < headerSize {
		return nil, 0, nil
	}
	if !bytes.Equal(buf[:len(Magic)], []byte(Magic)) {
		return nil, 0, fmt.Errorf("%w: bad handshake magic %q", application.ErrProtocol, buf[:len(Magic)])
	}
	length := int(binary.BigEndian.Uint16(buf[lengthStart:headerSize]))
	if len(buf) < headerSize+length {
		return nil, 0, nil
	}
	payload = append([]byte(nil), buf[headerSize:headerSize+length]...)
	return payload, headerSize + length, nil
}
