package regs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
)

// ErrUnknownRegister is returned for a register name missing from a Block.
var ErrUnknownRegister = errors.New("unknown register")

// Block describes a memory-mapped peripheral: its physical base address and
// the byte offset of each named register from that base.
type Block struct {
	Name      string            `json:"name"`
	Base      uint64            `json:"base"`
	Registers map[string]uint64 `json:"registers"`
}

// Validate checks that every register lies in the page holding Base.
func (b Block) Validate() error {
	if len(b.Registers) == 0 {
		return fmt.Errorf("block %s: no registers", b.Name)
	}
	for _, name := range b.Names() {
		addr := b.Base + b.Registers[name]
		if mmap.PageBase(addr) != mmap.PageBase(b.Base) || mmap.PageOffset(addr) > mmap.PageSize-4 {
			return fmt.Errorf("block %s: register %s at 0x%x: %w", b.Name, name, addr, ErrOutOfPage)
		}
	}
	return nil
}

// Names returns the register names in offset order.
func (b Block) Names() []string {
	names := make([]string, 0, len(b.Registers))
	for name := range b.Registers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := b.Registers[names[i]], b.Registers[names[j]]
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

// Peripheral is a mapped Block.
type Peripheral struct {
	block Block
	acc   Accessor
}

// OpenBlock maps the page holding b.Base through /dev/mem.
func OpenBlock(b Block, policy Policy) (*Peripheral, error) {
	return OpenBlockDevice(mmap.OpenDevMem, mmap.DevMemPath, b, policy)
}

// OpenBlockDevice maps the page holding b.Base through the given device facility.
func OpenBlockDevice(open mmap.Opener, path string, b Block, policy Policy) (*Peripheral, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	m, err := mmap.MapDevice(open, path, b.Base)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", b.Name, err)
	}
	return &Peripheral{
		block: b,
		acc:   Accessor{Mapping: m, Policy: policy},
	}, nil
}

// Close unmaps the peripheral.
func (p *Peripheral) Close() error {
	return p.acc.Mapping.Unmap()
}

// Block returns the peripheral's description.
func (p *Peripheral) Block() Block {
	return p.block
}

// Accessor returns the accessor bound to the peripheral's mapping.
func (p *Peripheral) Accessor() *Accessor {
	return &p.acc
}

// Addr returns the physical address of the named register.
func (p *Peripheral) Addr(name string) (uint64, error) {
	off, ok := p.block.Registers[name]
	if !ok {
		return 0, fmt.Errorf("%s: %w %q", p.block.Name, ErrUnknownRegister, name)
	}
	return p.block.Base + off, nil
}

// ReadReg reads the named register.
func (p *Peripheral) ReadReg(name string) (uint32, error) {
	addr, err := p.Addr(name)
	if err != nil {
		return 0, err
	}
	v, err := p.acc.Read(addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s.%s: %w", p.block.Name, name, err)
	}
	return v, nil
}

// WriteReg writes the named register.
func (p *Peripheral) WriteReg(name string, value uint32) error {
	addr, err := p.Addr(name)
	if err != nil {
		return err
	}
	if err := p.acc.Write(addr, value); err != nil {
		return fmt.Errorf("failed to write %s.%s: %w", p.block.Name, name, err)
	}
	return nil
}
