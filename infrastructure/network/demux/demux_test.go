package demux

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildDatagram(t *testing.T, payloadLen int, fill byte) []byte {
	t.Helper()
	datagram := make([]byte, 40+payloadLen)
	datagram[0] = 0x60
	binary.BigEndian.PutUint16(datagram[4:6], uint16(payloadLen))
	for i := 40; i < len(datagram); i++ {
		datagram[i] = fill
	}
	return datagram
}

func TestDemultiplexer_SingleDatagram(t *testing.T) {
	d := NewDemultiplexer()
	datagram := buildDatagram(t, 8, 0xAB)

	out := d.Feed(datagram)
	if len(out) != 1 || !bytes.Equal(out[0], datagram) {
		t.Fatalf("expected the datagram back, got %d results", len(out))
	}
	if d.Pending() != 0 {
		t.Fatalf("expected empty buffer, %d bytes pending", d.Pending())
	}
}

func TestDemultiplexer_AnyChunkingYieldsSameDatagrams(t *testing.T) {
	datagrams := [][]byte{
		buildDatagram(t, 0, 0),
		buildDatagram(t, 13, 0x11),
		buildDatagram(t, 256, 0x22),
		buildDatagram(t, 5, 0x33),
	}
	var wire []byte
	for _, datagram := range datagrams {
		wire = append(wire, datagram...)
	}

	for _, chunkSize := range []int{1, 2, 3, 7, 12, 39, 40, 41, 100, len(wire)} {
		d := NewDemultiplexer()
		var got [][]byte
		for offset := 0; offset < len(wire); offset += chunkSize {
			end := offset + chunkSize
			if end > len(wire) {
				end = len(wire)
			}
			got = append(got, d.Feed(wire[offset:end])...)
		}

		if len(got) != len(datagrams) {
			t.Fatalf("chunk size %d: expected %d datagrams, got %d", chunkSize, len(datagrams), len(got))
		}
		for i := range got {
			if !bytes.Equal(got[i], datagrams[i]) {
				t.Fatalf("chunk size %d: datagram %d differs", chunkSize, i)
			}
		}
		if d.Pending() != 0 {
			t.Fatalf("chunk size %d: %d bytes left pending", chunkSize, d.Pending())
		}
	}
}

func TestDemultiplexer_FourTwelveByteChunksOneDatagram(t *testing.T) {
	d := NewDemultiplexer()
	datagram := buildDatagram(t, 8, 0x44) // 48 bytes total

	var got [][]byte
	for i := 0; i < 4; i++ {
		got = append(got, d.Feed(datagram[i*12:(i+1)*12])...)
		if i < 3 && len(got) != 0 {
			t.Fatalf("datagram emitted after %d chunks", i+1)
		}
	}
	if len(got) != 1 || !bytes.Equal(got[0], datagram) {
		t.Fatalf("expected exactly one datagram after the fourth chunk, got %d", len(got))
	}
}

func TestDemultiplexer_ResynchronizesPastGarbage(t *testing.T) {
	d := NewDemultiplexer()
	datagram := buildDatagram(t, 4, 0x55)
	garbage := []byte{0x00, 0x45, 0x12, 0xFF, 0x01}

	out := d.Feed(append(append([]byte(nil), garbage...), datagram...))
	if len(out) != 1 || !bytes.Equal(out[0], datagram) {
		t.Fatalf("expected resynchronization to recover the datagram, got %d results", len(out))
	}
}

func TestDemultiplexer_IncompleteHeaderWaits(t *testing.T) {
	d := NewDemultiplexer()
	if out := d.Feed(make([]byte, 39)); out != nil {
		t.Fatalf("expected no datagrams from a partial header, got %d", len(out))
	}
	if d.Pending() != 39 {
		t.Fatalf("expected 39 pending bytes, got %d", d.Pending())
	}
}

func TestDemultiplexer_ResetDiscardsBuffer(t *testing.T) {
	d := NewDemultiplexer()
	d.Feed(make([]byte, 10))
	d.Reset()
	if d.Pending() != 0 {
		t.Fatalf("expected empty buffer after reset, got %d", d.Pending())
	}
}
