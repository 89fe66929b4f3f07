package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is how long Run waits when the FIFO holds less than a packet.
const DefaultPollInterval = 200 * time.Microsecond

// SampleSource is a FIFO of 32-bit samples.
type SampleSource interface {
	Available() (int, error)
	Read(dst []uint32) error
}

// Streamer sends a packet to Conn every time Source holds SamplesPerPacket samples.
type Streamer struct {
	Source       SampleSource
	Conn         io.Writer
	PollInterval time.Duration

	next uint16
	sent atomic.Uint64
}

// Sent returns the number of packets written to Conn.
func (s *Streamer) Sent() uint64 {
	return s.sent.Load()
}

// Run streams until ctx is done, then returns nil. Register access errors stop
// the stream; send errors are logged and the packet is dropped.
func (s *Streamer) Run(ctx context.Context) error {
	poll := s.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	var (
		pkt Packet
		buf = make([]byte, 0, PacketSize)
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := s.Source.Available()
		if err != nil {
			return fmt.Errorf("failed to read word count: %w", err)
		}
		if n < SamplesPerPacket {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(poll):
			}
			continue
		}

		if err := s.Source.Read(pkt.Samples[:]); err != nil {
			return fmt.Errorf("failed to read samples: %w", err)
		}
		pkt.Number = s.next
		s.next++

		buf = AppendPacket(buf[:0], &pkt)
		if _, err := s.Conn.Write(buf); err != nil {
			slog.Error("stream send failed", "packet", pkt.Number, "err", err)
			continue
		}
		s.sent.Add(1)
	}
}
