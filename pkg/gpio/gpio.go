package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Consumer is the label the kernel shows for lines held by this package.
const Consumer = "zybo-radio"

// Line is a single GPIO output line requested through the character device
type Line struct {
	chip   string
	offset int
	line   *gpiocdev.Line
	mu     sync.Mutex
}

// RequestOutput requests offset on chip as an output driven to initial
func RequestOutput(chip string, offset int, initial int) (*Line, error) {
	log.Printf("Requesting GPIO %s:%d as output", chip, offset)

	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(initial),
		gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("failed to request line %s:%d: %w", chip, offset, err)
	}

	return &Line{
		chip:   chip,
		offset: offset,
		line:   l,
	}, nil
}

// Close releases the line
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.line == nil {
		return nil
	}
	log.Printf("Releasing GPIO %s:%d", l.chip, l.offset)
	err := l.line.Close()
	l.line = nil
	return err
}

// SetValue drives the line to value (0 or 1)
func (l *Line) SetValue(value int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.setValue(value)
}

// Pulse drives the line high for d, then low again
func (l *Line) Pulse(d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log.Printf("Pulsing GPIO %s:%d for %v", l.chip, l.offset, d)
	if err := l.setValue(1); err != nil {
		return err
	}

	time.Sleep(d)

	return l.setValue(0)
}

func (l *Line) setValue(value int) error {
	if l.line == nil {
		return fmt.Errorf("line %s:%d is closed", l.chip, l.offset)
	}
	if err := l.line.SetValue(value); err != nil {
		return fmt.Errorf("failed to set %s:%d to %d: %w", l.chip, l.offset, value, err)
	}
	return nil
}
