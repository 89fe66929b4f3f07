// Package mmaptest provides an in-memory stand-in for /dev/mem so that code
// built on pkg/mmap can be exercised without hardware or privileges.
package mmaptest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
)

var (
	// ErrOpen is returned by Open when FailOpen is set.
	ErrOpen = errors.New("simulated open failure")
	// ErrMmap is returned by Device.Mmap when FailMmap is set.
	ErrMmap = errors.New("simulated mmap failure")
)

// Memory is a sparse simulated physical address space, one byte slice per page.
// Pages are created on first mmap and keep their contents across mappings.
type Memory struct {
	mu    sync.Mutex
	pages map[int64][]byte

	FailOpen bool
	FailMmap bool

	opens, closes  int
	mmaps, munmaps int
	paths          []string
}

// NewMemory returns an empty simulated address space.
func NewMemory() *Memory {
	return &Memory{pages: make(map[int64][]byte)}
}

// Open satisfies mmap.Opener.
func (m *Memory) Open(path string) (mmap.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.paths = append(m.paths, path)
	if m.FailOpen {
		return nil, ErrOpen
	}
	m.opens++
	return &Device{mem: m}, nil
}

// Page returns the backing bytes of the page at base, creating it if needed.
func (m *Memory) Page(base int64) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page(base)
}

func (m *Memory) page(base int64) []byte {
	p, ok := m.pages[base]
	if !ok {
		p = make([]byte, mmap.PageSize)
		m.pages[base] = p
	}
	return p
}

// Outstanding returns the number of device handles opened and not yet closed.
func (m *Memory) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens - m.closes
}

// Mapped returns the number of regions mapped and not yet unmapped.
func (m *Memory) Mapped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mmaps - m.munmaps
}

// Counts returns the number of open, close, mmap and munmap calls seen so far.
func (m *Memory) Counts() (opens, closes, mmaps, munmaps int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens, m.closes, m.mmaps, m.munmaps
}

// Paths returns every path passed to Open.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Device is one simulated open handle.
type Device struct {
	mem    *Memory
	closed bool
}

func (d *Device) Mmap(offset int64, length int) ([]byte, error) {
	d.mem.mu.Lock()
	defer d.mem.mu.Unlock()

	if d.closed {
		return nil, errors.New("mmap on closed device")
	}
	if d.mem.FailMmap {
		return nil, ErrMmap
	}
	if offset%mmap.PageSize != 0 || length != mmap.PageSize {
		return nil, fmt.Errorf("unsupported mmap offset 0x%x length %d", offset, length)
	}
	d.mem.mmaps++
	return d.mem.page(offset), nil
}

func (d *Device) Munmap(region []byte) error {
	d.mem.mu.Lock()
	defer d.mem.mu.Unlock()

	d.mem.munmaps++
	return nil
}

func (d *Device) Close() error {
	d.mem.mu.Lock()
	defer d.mem.mu.Unlock()

	if d.closed {
		return errors.New("device already closed")
	}
	d.closed = true
	d.mem.closes++
	return nil
}
