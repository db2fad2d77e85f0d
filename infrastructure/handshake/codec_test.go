package handshake

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"cdtun/application"
)

func TestEncodeFrame_Layout(t *testing.T) {
	payload := []byte(`{"type":"clientHandshakeRequest","mtu":16000}`)
	frame, err := EncodeFrame(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) != 10+len(payload) {
		t.Fatalf("expected %d bytes, got %d", 10+len(payload), len(frame))
	}
	if !bytes.Equal(frame[:8], []byte("CDTunnel")) {
		t.Fatalf("bad magic %q", frame[:8])
	}
	if int(frame[8])<<8|int(frame[9]) != len(payload) {
		t.Fatal("bad length field")
	}
	if !bytes.Equal(frame[10:], payload) {
		t.Fatal("payload mangled")
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	original := map[string]any{"serverAddress": "fd00::1", "clientParameters": map[string]any{"address": "fd00::2", "mtu": 1500.0}}
	payload, _ := json.Marshal(original)

	frame, err := EncodeFrame(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, consumed, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if consumed != len(frame) {
		t.Fatalf("expected %d consumed, got %d", len(frame), consumed)
	}

	var roundTripped map[string]any
	if unmarshalErr := json.Unmarshal(decoded, &roundTripped); unmarshalErr != nil {
		t.Fatalf("unmarshal: %v", unmarshalErr)
	}
	if roundTripped["serverAddress"] != "fd00::1" {
		t.Fatalf("round trip lost data: %v", roundTripped)
	}
}

func TestDecodeFrame_Incomplete(t *testing.T) {
	frame, _ := EncodeFrame([]byte(`{}`))
	for cut := 0; cut < len(frame); cut++ {
		payload, consumed, err := DecodeFrame(frame[:cut])
		if err != nil || payload != nil || consumed != 0 {
			t.Fatalf("cut %d: expected incomplete, got payload=%v consumed=%d err=%v", cut, payload, consumed, err)
		}
	}
}

func TestDecodeFrame_BadMagic(t *testing.T) {
	frame, _ := EncodeFrame([]byte(`{}`))
	frame[0] = 'X'
	if _, _, err := DecodeFrame(frame); !errors.Is(err, application.ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestEncodeFrame_TooLarge(t *testing.T) {
	if _, err := EncodeFrame(make([]byte, 65536)); !errors.Is(err, application.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
