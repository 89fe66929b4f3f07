package radio_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
	"github.com/fcurrie/zybo-radio-golang/pkg/mmap/mmaptest"
	"github.com/fcurrie/zybo-radio-golang/pkg/radio"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

func newTuner(t *testing.T) (*radio.Tuner, *mmaptest.Memory) {
	t.Helper()
	mem := mmaptest.NewMemory()
	p, err := regs.OpenBlockDevice(mem.Open, mmap.DevMemPath, radio.DefaultBlock(), regs.Strict)
	if err != nil {
		t.Fatalf("OpenBlockDevice() error = %v", err)
	}
	t.Cleanup(func() {
		p.Close()
		if n := mem.Outstanding(); n != 0 {
			t.Errorf("Outstanding() = %d after Close, want 0", n)
		}
	})
	return radio.NewTuner(p), mem
}

func word(mem *mmaptest.Memory, off int) uint32 {
	return binary.LittleEndian.Uint32(mem.Page(radio.BaseAddr)[off:])
}

func TestPhaseIncrement(t *testing.T) {
	tests := []struct {
		freq float64
		want uint32
	}{
		{30e6, 1030792151},
		{1000, 34359},
		{0, 0},
		{-5, 0},
	}
	for _, tt := range tests {
		if got := radio.PhaseIncrement(tt.freq, radio.SysClock); got != tt.want {
			t.Errorf("PhaseIncrement(%v) = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestTuneAndADC(t *testing.T) {
	tuner, mem := newTuner(t)

	if err := tuner.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if err := tuner.Tune(30e6); err != nil {
		t.Fatalf("Tune() error = %v", err)
	}
	if err := tuner.SetADCFrequency(1000); err != nil {
		t.Fatalf("SetADCFrequency() error = %v", err)
	}

	if got := word(mem, 0x8); got != 1 {
		t.Errorf("control = %d, want 1", got)
	}
	if got, want := word(mem, 0x4), radio.PhaseIncrement(30e6, radio.SysClock); got != want {
		t.Errorf("tuner_pinc = %d, want %d", got, want)
	}
	if got, want := word(mem, 0x0), radio.PhaseIncrement(1000, radio.SysClock); got != want {
		t.Errorf("fake_adc_pinc = %d, want %d", got, want)
	}
}

func TestToggleMute(t *testing.T) {
	tuner, _ := newTuner(t)

	if err := tuner.Enable(); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	for i, want := range []bool{true, false, true} {
		muted, err := tuner.ToggleMute()
		if err != nil {
			t.Fatalf("ToggleMute() error = %v", err)
		}
		if muted != want {
			t.Errorf("toggle %d: muted = %v, want %v", i, muted, want)
		}
		if got, _ := tuner.Muted(); got != want {
			t.Errorf("toggle %d: Muted() = %v, want %v", i, got, want)
		}
	}
}

func TestPlayTune(t *testing.T) {
	tuner, mem := newTuner(t)
	tuner.Tempo = time.Millisecond

	notes := []radio.Note{{440, 1}, {0, 0.5}, {880, 1}}
	if err := tuner.PlayTune(context.Background(), 30e6, notes); err != nil {
		t.Fatalf("PlayTune() error = %v", err)
	}
	if got, want := word(mem, 0x0), radio.PhaseIncrement(880+30e6, radio.SysClock); got != want {
		t.Errorf("fake_adc_pinc = %d, want %d", got, want)
	}
}

func TestPlayTuneCancelled(t *testing.T) {
	tuner, _ := newTuner(t)
	tuner.Tempo = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tuner.PlayTune(ctx, 0, radio.DefaultTune); !errors.Is(err, context.Canceled) {
		t.Errorf("PlayTune() error = %v, want context.Canceled", err)
	}
}

func TestDuration(t *testing.T) {
	got := radio.Duration([]radio.Note{{1, 1}, {2, 0.5}, {3, 2}}, 100*time.Millisecond)
	if got != 350*time.Millisecond {
		t.Errorf("Duration() = %v, want 350ms", got)
	}
	if len(radio.DefaultTune) != 16 {
		t.Errorf("len(DefaultTune) = %d, want 16", len(radio.DefaultTune))
	}
}

func TestBenchmarkResult(t *testing.T) {
	r := radio.NewBenchmarkResult(2048, 0xfffffff0, 0x10, radio.SysClock)
	if r.Clocks != 0x20 {
		t.Errorf("Clocks = %d, want 32", r.Clocks)
	}
	if r.Bytes != 8192 {
		t.Errorf("Bytes = %d, want 8192", r.Bytes)
	}
	if r.MBps <= 0 {
		t.Errorf("MBps = %f, want > 0", r.MBps)
	}

	zero := radio.NewBenchmarkResult(10, 5, 5, radio.SysClock)
	if zero.Seconds != 0 || zero.MBps != 0 {
		t.Errorf("zero-clock result = %+v", zero)
	}
}

func TestBenchmark(t *testing.T) {
	tuner, mem := newTuner(t)
	binary.LittleEndian.PutUint32(mem.Page(radio.BaseAddr)[0xc:], 1234)

	r, err := tuner.Benchmark(0)
	if err != nil {
		t.Fatalf("Benchmark() error = %v", err)
	}
	if r.Reads != radio.DefaultBenchmarkReads || r.Clocks != 0 {
		t.Errorf("Benchmark() = %+v", r)
	}
}

type fakeReset struct {
	pulses []time.Duration
	err    error
}

func (f *fakeReset) Pulse(d time.Duration) error {
	f.pulses = append(f.pulses, d)
	return f.err
}

func TestReset(t *testing.T) {
	tuner, _ := newTuner(t)
	if err := tuner.Reset(); err != nil {
		t.Fatalf("Reset() without line error = %v", err)
	}

	line := &fakeReset{}
	tuner.ResetLine = line
	if err := tuner.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(line.pulses) != 1 || line.pulses[0] != radio.DefaultResetPulse {
		t.Errorf("pulses = %v", line.pulses)
	}

	boom := errors.New("boom")
	line.err = boom
	if err := tuner.Reset(); !errors.Is(err, boom) {
		t.Errorf("Reset() error = %v, want boom", err)
	}
}

func TestUseAfterClose(t *testing.T) {
	mem := mmaptest.NewMemory()
	p, err := regs.OpenBlockDevice(mem.Open, mmap.DevMemPath, radio.DefaultBlock(), regs.Strict)
	if err != nil {
		t.Fatalf("OpenBlockDevice() error = %v", err)
	}
	tuner := radio.NewTuner(p)
	p.Close()

	if err := tuner.Tune(1e6); !errors.Is(err, mmap.ErrReleased) {
		t.Errorf("Tune() after Close error = %v, want ErrReleased", err)
	}
}

func TestPlotTune(t *testing.T) {
	var buf bytes.Buffer
	if err := radio.PlotTune(&buf, radio.DefaultTune); err != nil {
		t.Fatalf("PlotTune() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<svg") {
		t.Errorf("PlotTune() output does not start with <svg: %q", buf.String()[:16])
	}

	if err := radio.PlotTune(&buf, nil); err == nil {
		t.Error("PlotTune(nil) returned nil error")
	}
}

func TestRenderTunePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := radio.RenderTunePNG(&buf, radio.DefaultTune); err != nil {
		t.Fatalf("RenderTunePNG() error = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	b := img.Bounds()
	if b.Dx() != radio.PlotWidth || b.Dy() != radio.PlotHeight {
		t.Errorf("bounds = %v", b)
	}

	// The background is white in the corner.
	if r, g, bl, _ := img.At(0, 0).RGBA(); r < 0xf000 || g < 0xf000 || bl < 0xf000 {
		t.Errorf("corner = %v, want white", img.At(0, 0))
	}
}
