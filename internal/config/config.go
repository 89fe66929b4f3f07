package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fcurrie/zybo-radio-golang/pkg/fifo"
	"github.com/fcurrie/zybo-radio-golang/pkg/radio"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

// ErrConfig is wrapped by every validation error.
var ErrConfig = errors.New("invalid configuration")

// ResetLineConfig names the GPIO line wired to the radio's reset input
type ResetLineConfig struct {
	Chip    string `json:"chip"`
	Offset  int    `json:"offset"`
	PulseMS int    `json:"pulse_ms"`
}

// StreamConfig configures the UDP sample stream
type StreamConfig struct {
	Dest       string `json:"dest"`
	PollMicros int    `json:"poll_us"`
}

// Config represents the application configuration
type Config struct {
	Radio      regs.Block       `json:"radio"`
	FIFO       regs.Block       `json:"fifo"`
	SysClock   float64          `json:"sysclock"`
	TempoMS    int              `json:"tempo_ms"`
	PagePolicy string           `json:"page_policy"`
	ResetLine  *ResetLineConfig `json:"reset_line,omitempty"`
	Stream     StreamConfig     `json:"stream"`
	Tune       []radio.Note     `json:"tune,omitempty"`
}

// LoadConfig loads the configuration from a file, on top of DefaultConfig
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := DefaultConfig()
	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Radio:      radio.DefaultBlock(),
		FIFO:       fifo.DefaultBlock(),
		SysClock:   radio.SysClock,
		TempoMS:    int(radio.DefaultTempo / time.Millisecond),
		PagePolicy: regs.Strict.String(),
		Stream: StreamConfig{
			Dest:       "192.168.1.23:25344",
			PollMicros: 200,
		},
	}
}

// Validate checks the configuration for values the hardware cannot use
func (c *Config) Validate() error {
	if err := c.Radio.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := c.FIFO.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	for _, name := range []string{radio.RegFakeADCPinc, radio.RegTunerPinc, radio.RegControl, radio.RegTimer} {
		if _, ok := c.Radio.Registers[name]; !ok {
			return fmt.Errorf("%w: radio block missing register %q", ErrConfig, name)
		}
	}
	for _, name := range []string{fifo.RegWordCount, fifo.RegCurrentSample} {
		if _, ok := c.FIFO.Registers[name]; !ok {
			return fmt.Errorf("%w: fifo block missing register %q", ErrConfig, name)
		}
	}
	if c.SysClock <= 0 {
		return fmt.Errorf("%w: sysclock must be positive, got %v", ErrConfig, c.SysClock)
	}
	if c.TempoMS <= 0 {
		return fmt.Errorf("%w: tempo_ms must be positive, got %d", ErrConfig, c.TempoMS)
	}
	if _, err := regs.ParsePolicy(c.PagePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.ResetLine != nil && c.ResetLine.Chip == "" {
		return fmt.Errorf("%w: reset_line.chip is required", ErrConfig)
	}
	return nil
}

// Policy returns the parsed page policy.
func (c *Config) Policy() regs.Policy {
	p, _ := regs.ParsePolicy(c.PagePolicy)
	return p
}

// Tempo returns the duration of one beat.
func (c *Config) Tempo() time.Duration {
	return time.Duration(c.TempoMS) * time.Millisecond
}

// Notes returns the configured tune, or radio.DefaultTune.
func (c *Config) Notes() []radio.Note {
	if len(c.Tune) > 0 {
		return c.Tune
	}
	return radio.DefaultTune
}

// ResetPulse returns the configured reset pulse width.
func (c *Config) ResetPulse() time.Duration {
	if c.ResetLine == nil || c.ResetLine.PulseMS <= 0 {
		return radio.DefaultResetPulse
	}
	return time.Duration(c.ResetLine.PulseMS) * time.Millisecond
}

// PollInterval returns the stream poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Stream.PollMicros) * time.Microsecond
}
