package radio

import (
	"context"
	"fmt"
	"time"
)

// DefaultTempo is the duration of one beat.
const DefaultTempo = 500 * time.Millisecond

// Note is one step of a tune: an ADC frequency offset in Hz held for Beats.
// A zero Freq is a rest.
type Note struct {
	Freq  float64 `json:"freq"`
	Beats float64 `json:"beats"`
}

// DefaultTune is the sequence played by the demo.
var DefaultTune = []Note{
	{1760.0, 1}, {1567.98, 1}, {1396.91, 1}, {1318.51, 1},
	{1174.66, 1}, {1318.51, 1}, {1396.91, 1}, {1567.98, 1},
	{1760.0, .5}, {0, 0.0001}, {1760.0, .5}, {0, 0.0001},
	{1760.0, 1}, {1975.53, 1}, {2093.0, 2}, {0, 0.0001},
}

// Duration returns how long notes take at tempo.
func Duration(notes []Note, tempo time.Duration) time.Duration {
	var d time.Duration
	for _, n := range notes {
		d += time.Duration(n.Beats * float64(tempo))
	}
	return d
}

// PlayTune steps the fake ADC through notes, each offset by base Hz.
// It returns ctx.Err() if ctx is done before the tune ends.
func (t *Tuner) PlayTune(ctx context.Context, base float64, notes []Note) error {
	tempo := t.Tempo
	if tempo <= 0 {
		tempo = DefaultTempo
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for i, n := range notes {
		if err := t.SetADCFrequency(n.Freq + base); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}

		timer.Reset(time.Duration(n.Beats * float64(tempo)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
