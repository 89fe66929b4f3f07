// Package fifo reads samples from the simple FIFO samples-source peripheral.
package fifo

import (
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

// BaseAddr is the physical base of the samples source.
const BaseAddr = 0x43c10000

// Register names
const (
	RegWordCount     = "word_count"     // samples waiting in the FIFO (R)
	RegCurrentSample = "current_sample" // pops one packed L/R sample (R)
)

// DefaultBlock returns the register layout of the samples source.
func DefaultBlock() regs.Block {
	return regs.Block{
		Name: "fifo",
		Base: BaseAddr,
		Registers: map[string]uint64{
			RegWordCount:     0x0,
			RegCurrentSample: 0x4,
		},
	}
}

// Source reads from a mapped samples-source peripheral.
type Source struct {
	p *regs.Peripheral
}

// NewSource wraps p. The caller keeps ownership of p.
func NewSource(p *regs.Peripheral) *Source {
	return &Source{p: p}
}

// Available returns the number of samples waiting.
func (s *Source) Available() (int, error) {
	n, err := s.p.ReadReg(RegWordCount)
	return int(n), err
}

// Next pops one sample.
func (s *Source) Next() (uint32, error) {
	return s.p.ReadReg(RegCurrentSample)
}

// Read fills dst with consecutive samples.
func (s *Source) Read(dst []uint32) error {
	for i := range dst {
		v, err := s.Next()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}
