package stream

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
)

// TestPacket builds a packet of size bytes: a little-endian packet number
// followed by random signed 16-bit samples.
func TestPacket(rng *rand.Rand, number uint16, size int) []byte {
	if size < HeaderSize {
		size = HeaderSize
	}
	b := make([]byte, HeaderSize, size)
	binary.LittleEndian.PutUint16(b, number)
	for i := 0; i < (size-HeaderSize)/2; i++ {
		b = binary.LittleEndian.AppendUint16(b, uint16(int16(rng.Intn(1<<16)-1<<15)))
	}
	return b
}

// SendTestPackets writes n random packets of size bytes to w.
func SendTestPackets(ctx context.Context, w io.Writer, rng *rand.Rand, n, size int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.Write(TestPacket(rng, uint16(i), size)); err != nil {
			return fmt.Errorf("failed to send packet %d: %w", i, err)
		}
	}
	return nil
}
