// Package regs reads and writes 32-bit device registers by absolute physical
// address through a single-page mmap.Mapping.
package regs

import (
	"errors"
	"fmt"

	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
)

var (
	// ErrOutOfPage is returned when an address is not inside the mapped page.
	ErrOutOfPage = errors.New("address outside mapped page")
	// ErrMisaligned is returned for unaligned addresses when alignment is required.
	ErrMisaligned = errors.New("misaligned register address")
)

// Policy selects what happens to an address outside the mapped page.
type Policy int

const (
	// Strict rejects addresses outside the mapped page with ErrOutOfPage.
	Strict Policy = iota
	// Wrap reduces every address modulo the page size, so an address in a
	// different page silently aliases into the mapped one.
	Wrap
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Wrap:
		return "wrap"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses "strict" or "wrap".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "wrap":
		return Wrap, nil
	}
	return Strict, fmt.Errorf("unknown page policy %q", s)
}

// Accessor performs register accesses against one mapping.
type Accessor struct {
	Mapping        *mmap.Mapping
	Policy         Policy
	RequireAligned bool
}

// Offset returns the in-page offset used for addr under the accessor's policy.
func (a *Accessor) Offset(addr uint64) (uint64, error) {
	if a.Mapping.Released() {
		return 0, mmap.ErrReleased
	}
	if a.Policy == Strict && !a.Mapping.Contains(addr) {
		return 0, fmt.Errorf("%w: 0x%x not in page 0x%x", ErrOutOfPage, addr, a.Mapping.Base())
	}
	if a.RequireAligned && addr%4 != 0 {
		return 0, fmt.Errorf("%w: 0x%x", ErrMisaligned, addr)
	}
	return mmap.PageOffset(addr), nil
}

// Write stores value in the register at addr.
func (a *Accessor) Write(addr uint64, value uint32) error {
	off, err := a.Offset(addr)
	if err != nil {
		return err
	}
	return a.Mapping.Write32(off, value)
}

// Read loads the register at addr.
func (a *Accessor) Read(addr uint64) (uint32, error) {
	off, err := a.Offset(addr)
	if err != nil {
		return 0, err
	}
	return a.Mapping.Read32(off)
}

// Write stores value in the register at addr using the Strict policy.
func Write(m *mmap.Mapping, addr uint64, value uint32) error {
	a := Accessor{Mapping: m}
	return a.Write(addr, value)
}

// Read loads the register at addr using the Strict policy.
func Read(m *mmap.Mapping, addr uint64) (uint32, error) {
	a := Accessor{Mapping: m}
	return a.Read(addr)
}
