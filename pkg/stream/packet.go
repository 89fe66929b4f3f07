// Package stream packs FIFO samples into numbered UDP packets and sends them.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// SamplesPerPacket is the number of 32-bit samples in a packet.
	SamplesPerPacket = 256
	// HeaderSize is the size of the little-endian packet number.
	HeaderSize = 2
	// PacketSize is the size of a full packet on the wire.
	PacketSize = HeaderSize + 4*SamplesPerPacket
)

// ErrShortPacket is returned when decoding fewer than PacketSize bytes.
var ErrShortPacket = errors.New("short packet")

// Packet is one numbered block of samples.
type Packet struct {
	Number  uint16
	Samples [SamplesPerPacket]uint32
}

// AppendPacket appends the wire form of p to b.
func AppendPacket(b []byte, p *Packet) []byte {
	b = binary.LittleEndian.AppendUint16(b, p.Number)
	for _, s := range p.Samples {
		b = binary.LittleEndian.AppendUint32(b, s)
	}
	return b
}

// DecodePacket parses the wire form of a packet.
func DecodePacket(b []byte) (*Packet, error) {
	if len(b) < PacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	p := &Packet{Number: binary.LittleEndian.Uint16(b)}
	b = b[HeaderSize:]
	for i := range p.Samples {
		p.Samples[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return p, nil
}
