package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"cdtun/infrastructure/PAL/tun_client"
	"cdtun/infrastructure/logging"
	"cdtun/infrastructure/tunnel"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <host:port>\n", os.Args[0])
		os.Exit(2)
	}
	logger := logging.NewLogLogger()

	conn, err := net.Dial("tcp", os.Args[1])
	if err != nil {
		logger.Printf("failed to dial %s: %v", os.Args[1], err)
		os.Exit(1)
	}

	manager := tun_client.NewPlatformTunManager(logger)
	session, err := tunnel.Connect(conn, manager, logger)
	if err != nil {
		_ = conn.Close()
		logger.Printf("failed to establish tunnel: %v", err)
		tunnel.StopAll()
		os.Exit(1)
	}

	go logPackets(session, logger.Printf)

	<-session.Done()

	counters := session.Counters()
	logger.Printf("tunnel closed: %d packets in, %d packets out", counters.PacketsIn, counters.PacketsOut)
}

func logPackets(session *tunnel.Session, printf func(string, ...any)) {
	stream := session.PacketStream()
	for {
		record, err := stream.Next(context.Background())
		if err != nil {
			return
		}
		printf("%s %s:%d -> %s:%d (%d bytes)",
			record.Protocol, record.Source, record.SourcePort,
			record.Destination, record.DestinationPort, len(record.Payload))
	}
}
