package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

// Device is an open handle to a physical memory facility.
type Device interface {
	// Mmap maps length bytes of the device starting at offset.
	Mmap(offset int64, length int) ([]byte, error)
	// Munmap releases a region returned by Mmap.
	Munmap(region []byte) error
	// Close closes the handle.
	Close() error
}

// Opener opens a Device by path.
type Opener func(path string) (Device, error)

type devMem struct {
	f *os.File
}

// OpenDevMem opens path read/write with synchronous (uncached) semantics.
func OpenDevMem(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	return &devMem{f: f}, nil
}

func (d *devMem) Mmap(offset int64, length int) ([]byte, error) {
	return unix.Mmap(
		int(d.f.Fd()),
		offset,
		length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
}

func (d *devMem) Munmap(region []byte) error {
	return unix.Munmap(region)
}

func (d *devMem) Close() error {
	return d.f.Close()
}
