// Package mmap maps a single page of physical memory into the process through
// /dev/mem and performs volatile 32-bit accesses inside it.
//
// A Mapping owns exactly one open device handle and one mapped page. It is not
// safe for concurrent Unmap; concurrent Read32/Write32 calls are independent
// device accesses and are left to the hardware to order.
package mmap

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

const (
	// PageSize is the size of every mapping.
	PageSize = 4096
	// DevMemPath is the physical memory device.
	DevMemPath = "/dev/mem"
)

var (
	// ErrMapping is returned when the device cannot be opened or the page cannot be mapped.
	ErrMapping = errors.New("mapping failed")
	// ErrReleased is returned by any operation on a mapping after Unmap.
	ErrReleased = errors.New("mapping released")
	// ErrOutOfRange is returned when a 32-bit access does not fit in the page.
	ErrOutOfRange = errors.New("offset out of range")
)

// Mapping represents one mapped page of physical memory
type Mapping struct {
	dev      Device
	region   []byte
	physBase uint64
	released bool
}

// PageBase returns addr with its in-page bits cleared.
func PageBase(addr uint64) uint64 {
	return addr &^ (PageSize - 1)
}

// PageOffset returns the byte offset of addr inside its page.
func PageOffset(addr uint64) uint64 {
	return addr % PageSize
}

// Map maps the page containing physAddr through /dev/mem.
func Map(physAddr uint64) (*Mapping, error) {
	return MapDevice(OpenDevMem, DevMemPath, physAddr)
}

// MapDevice maps the page containing physAddr through the device returned by open.
// No device handle outlives a failed call.
func MapDevice(open Opener, path string, physAddr uint64) (*Mapping, error) {
	base := PageBase(physAddr)

	dev, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrMapping, path, err)
	}

	region, err := dev.Mmap(int64(base), PageSize)
	if err != nil {
		if cerr := dev.Close(); cerr != nil {
			return nil, fmt.Errorf("%w: failed to mmap 0x%x: %w (close: %v)", ErrMapping, base, err, cerr)
		}
		return nil, fmt.Errorf("%w: failed to mmap 0x%x: %w", ErrMapping, base, err)
	}
	if len(region) < PageSize {
		dev.Munmap(region)
		dev.Close()
		return nil, fmt.Errorf("%w: short mapping at 0x%x: %d bytes", ErrMapping, base, len(region))
	}

	return &Mapping{
		dev:      dev,
		region:   region[:PageSize],
		physBase: base,
	}, nil
}

// Unmap releases the page, then closes the device. The mapping cannot be used afterwards.
func (m *Mapping) Unmap() error {
	if m == nil || m.released {
		return ErrReleased
	}
	m.released = true

	region := m.region
	m.region = nil
	dev := m.dev
	m.dev = nil

	merr := dev.Munmap(region)
	cerr := dev.Close()
	if merr != nil {
		return fmt.Errorf("failed to munmap 0x%x: %w", m.physBase, merr)
	}
	if cerr != nil {
		return fmt.Errorf("failed to close device: %w", cerr)
	}
	return nil
}

// Released reports whether Unmap has been called.
func (m *Mapping) Released() bool {
	return m == nil || m.released
}

// Base returns the page-aligned physical address of the mapping.
func (m *Mapping) Base() uint64 {
	return m.physBase
}

// Size returns the number of mapped bytes.
func (m *Mapping) Size() int {
	return PageSize
}

// Contains reports whether addr lies in the mapped physical page.
func (m *Mapping) Contains(addr uint64) bool {
	return PageBase(addr) == m.physBase
}

// Read32 reads a 32-bit value at offset bytes into the page. Aligned offsets
// are a single 32-bit load; unaligned ones are four byte loads, lowest address
// as least significant byte.
func (m *Mapping) Read32(offset uint64) (uint32, error) {
	if err := m.check(offset); err != nil {
		return 0, err
	}
	if offset%4 == 0 {
		return atomic.LoadUint32((*uint32)(unsafe.Pointer(&m.region[offset]))), nil
	}
	var v uint32
	for i := uint64(0); i < 4; i++ {
		v |= uint32(load8(&m.region[offset+i])) << (8 * i)
	}
	return v, nil
}

// Write32 writes a 32-bit value at offset bytes into the page, with the same
// access widths as Read32.
func (m *Mapping) Write32(offset uint64, value uint32) error {
	if err := m.check(offset); err != nil {
		return err
	}
	if offset%4 == 0 {
		atomic.StoreUint32((*uint32)(unsafe.Pointer(&m.region[offset])), value)
		return nil
	}
	for i := uint64(0); i < 4; i++ {
		store8(&m.region[offset+i], uint8(value>>(8*i)))
	}
	return nil
}

func (m *Mapping) check(offset uint64) error {
	if m.Released() {
		return ErrReleased
	}
	if offset > PageSize-4 {
		return fmt.Errorf("%w: 0x%x", ErrOutOfRange, offset)
	}
	return nil
}
