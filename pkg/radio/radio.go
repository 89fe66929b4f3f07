// Package radio drives the radio tuner peripheral: a fake ADC tone generator
// and a tuner, both set by DDS phase increments, plus a control register and a
// free-running clock counter.
package radio

import (
	"fmt"
	"log"
	"time"

	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

const (
	// BaseAddr is the physical base of the radio peripheral.
	BaseAddr = 0x43c00000
	// SysClock is the peripheral clock in Hz.
	SysClock = 125e6
	// PhaseWidth is 2^32, the span of a 32-bit phase accumulator.
	PhaseWidth = 4294967296.0

	// DefaultResetPulse is how long the reset line is held high.
	DefaultResetPulse = 10 * time.Millisecond
)

// Register names
const (
	RegFakeADCPinc = "fake_adc_pinc" // fake ADC phase increment (W)
	RegTunerPinc   = "tuner_pinc"    // tuner phase increment (W)
	RegControl     = "control"       // bit 0 releases the radio from reset (RW)
	RegTimer       = "timer"         // free-running clock counter (R)
)

// DefaultBlock returns the register layout of the radio peripheral.
func DefaultBlock() regs.Block {
	return regs.Block{
		Name: "radio",
		Base: BaseAddr,
		Registers: map[string]uint64{
			RegFakeADCPinc: 0x0,
			RegTunerPinc:   0x4,
			RegControl:     0x8,
			RegTimer:       0xc,
		},
	}
}

// PhaseIncrement converts freq into a phase increment for a DDS clocked at sysclk.
func PhaseIncrement(freq, sysclk float64) uint32 {
	if freq <= 0 || sysclk <= 0 {
		return 0
	}
	return uint32(freq / sysclk * PhaseWidth)
}

// ResetLine is an output that can hold the radio in reset.
type ResetLine interface {
	Pulse(d time.Duration) error
}

// Tuner represents the radio tuner peripheral
type Tuner struct {
	p *regs.Peripheral

	// SysClock is the DDS clock in Hz; zero means the package default.
	SysClock float64
	// Tempo is the duration of one beat in PlayTune; zero means DefaultTempo.
	Tempo time.Duration
	// ResetLine, if set, is pulsed by Reset.
	ResetLine  ResetLine
	ResetPulse time.Duration
}

// NewTuner wraps a mapped radio peripheral. The caller keeps ownership of p.
func NewTuner(p *regs.Peripheral) *Tuner {
	return &Tuner{p: p}
}

func (t *Tuner) sysclk() float64 {
	if t.SysClock > 0 {
		return t.SysClock
	}
	return SysClock
}

// Reset pulses the external reset line if one is configured.
func (t *Tuner) Reset() error {
	if t.ResetLine == nil {
		return nil
	}
	d := t.ResetPulse
	if d <= 0 {
		d = DefaultResetPulse
	}
	if err := t.ResetLine.Pulse(d); err != nil {
		return fmt.Errorf("failed to reset radio: %w", err)
	}
	return nil
}

// Enable takes the radio out of reset.
func (t *Tuner) Enable() error {
	return t.p.WriteReg(RegControl, 1)
}

// Mute holds the radio in reset.
func (t *Tuner) Mute() error {
	return t.p.WriteReg(RegControl, 0)
}

// Muted reports whether the radio is held in reset.
func (t *Tuner) Muted() (bool, error) {
	v, err := t.p.ReadReg(RegControl)
	if err != nil {
		return false, err
	}
	return v&1 == 0, nil
}

// ToggleMute flips the control register and returns the new muted state.
func (t *Tuner) ToggleMute() (bool, error) {
	muted, err := t.Muted()
	if err != nil {
		return false, err
	}
	if muted {
		return false, t.Enable()
	}
	return true, t.Mute()
}

// SetADCFrequency sets the fake ADC tone in Hz.
func (t *Tuner) SetADCFrequency(hz float64) error {
	pinc := PhaseIncrement(hz, t.sysclk())
	log.Printf("Setting ADC frequency to %.2f Hz (phase increment %d)", hz, pinc)
	return t.p.WriteReg(RegFakeADCPinc, pinc)
}

// Tune sets the tuner frequency in Hz.
func (t *Tuner) Tune(hz float64) error {
	pinc := PhaseIncrement(hz, t.sysclk())
	log.Printf("Tuning radio to %.2f Hz (phase increment %d)", hz, pinc)
	return t.p.WriteReg(RegTunerPinc, pinc)
}

// Timer reads the free-running clock counter.
func (t *Tuner) Timer() (uint32, error) {
	return t.p.ReadReg(RegTimer)
}
