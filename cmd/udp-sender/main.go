package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/fcurrie/zybo-radio-golang/pkg/stream"
)

func main() {
	n := flag.Int("n", 10, "Number of packets to send")
	size := flag.Int("s", stream.PacketSize, "Size of packet in bytes")
	dest := flag.String("d", "192.168.1.23:25344", "Destination endpoint")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for sample data")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := net.Dial("udp", *dest)
	if err != nil {
		log.Fatalf("Failed to dial %s: %v", *dest, err)
	}
	defer conn.Close()

	rng := rand.New(rand.NewSource(*seed))
	if err := stream.SendTestPackets(ctx, conn, rng, *n, *size); err != nil {
		conn.Close()
		stop()
		log.Fatalf("Failed to send packets: %v", err)
	}
	log.Printf("Sent %d packets of %d bytes to %s", *n, *size, *dest)
}
