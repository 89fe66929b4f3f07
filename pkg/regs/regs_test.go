package regs_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
	"github.com/fcurrie/zybo-radio-golang/pkg/mmap/mmaptest"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

const radioBase = 0x43c00000

func mapPage(t *testing.T, mem *mmaptest.Memory, addr uint64) *mmap.Mapping {
	t.Helper()
	m, err := mmap.MapDevice(mem.Open, mmap.DevMemPath, addr)
	if err != nil {
		t.Fatalf("MapDevice(0x%x) error = %v", addr, err)
	}
	return m
}

func TestWriteReadScenario(t *testing.T) {
	mem := mmaptest.NewMemory()
	m := mapPage(t, mem, radioBase)

	if err := regs.Write(m, 0x43c00001, 0x1E848000); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := regs.Read(m, 0x43c00001)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != 0x1E848000 {
		t.Errorf("Read() = 0x%x, want 0x1E848000", got)
	}

	if err := m.Unmap(); err != nil {
		t.Fatalf("Unmap() error = %v", err)
	}
	if _, err := regs.Read(m, 0x43c00001); !errors.Is(err, mmap.ErrReleased) {
		t.Errorf("Read() after Unmap error = %v, want ErrReleased", err)
	}
	if err := regs.Write(m, 0x43c00001, 0); !errors.Is(err, mmap.ErrReleased) {
		t.Errorf("Write() after Unmap error = %v, want ErrReleased", err)
	}
	if n := mem.Outstanding(); n != 0 {
		t.Errorf("Outstanding() = %d, want 0", n)
	}
}

func TestOffsetsAgreeForAlignedAndUnalignedMaps(t *testing.T) {
	mem := mmaptest.NewMemory()
	a := mapPage(t, mem, radioBase+0x123)
	defer a.Unmap()
	b := mapPage(t, mem, radioBase)
	defer b.Unmap()

	accA := regs.Accessor{Mapping: a}
	accB := regs.Accessor{Mapping: b}
	for addr := uint64(radioBase); addr < radioBase+mmap.PageSize; addr += 0x101 {
		oa, errA := accA.Offset(addr)
		ob, errB := accB.Offset(addr)
		if errA != nil || errB != nil {
			t.Fatalf("Offset(0x%x) errors = %v, %v", addr, errA, errB)
		}
		if oa != ob {
			t.Fatalf("Offset(0x%x) = 0x%x and 0x%x, want equal", addr, oa, ob)
		}
	}
}

func TestRoundTripEveryWord(t *testing.T) {
	mem := mmaptest.NewMemory()
	m := mapPage(t, mem, radioBase)
	defer m.Unmap()

	for o := uint64(0); o <= mmap.PageSize-4; o += 4 {
		v := uint32(o)*0x9e3779b9 ^ 0xa5a5a5a5
		if err := regs.Write(m, radioBase+o, v); err != nil {
			t.Fatalf("Write(+0x%x) error = %v", o, err)
		}
	}
	for o := uint64(0); o <= mmap.PageSize-4; o += 4 {
		want := uint32(o)*0x9e3779b9 ^ 0xa5a5a5a5
		got, err := regs.Read(m, radioBase+o)
		if err != nil {
			t.Fatalf("Read(+0x%x) error = %v", o, err)
		}
		if got != want {
			t.Fatalf("Read(+0x%x) = 0x%x, want 0x%x", o, got, want)
		}
	}
}

func TestPageBoundary(t *testing.T) {
	mem := mmaptest.NewMemory()
	m := mapPage(t, mem, radioBase)
	defer m.Unmap()

	next := uint64(radioBase + mmap.PageSize)
	if got := mmap.PageOffset(next); got != 0 {
		t.Fatalf("PageOffset(base+PageSize) = %d, want 0", got)
	}

	t.Run("strict", func(t *testing.T) {
		acc := regs.Accessor{Mapping: m, Policy: regs.Strict}
		if _, err := acc.Offset(next); !errors.Is(err, regs.ErrOutOfPage) {
			t.Errorf("Offset() error = %v, want ErrOutOfPage", err)
		}
		if err := acc.Write(next, 1); !errors.Is(err, regs.ErrOutOfPage) {
			t.Errorf("Write() error = %v, want ErrOutOfPage", err)
		}
		if _, err := regs.Read(m, radioBase-4); !errors.Is(err, regs.ErrOutOfPage) {
			t.Errorf("Read() error = %v, want ErrOutOfPage", err)
		}
	})

	t.Run("wrap", func(t *testing.T) {
		acc := regs.Accessor{Mapping: m, Policy: regs.Wrap}
		off, err := acc.Offset(next)
		if err != nil || off != 0 {
			t.Fatalf("Offset() = %d, %v, want 0, nil", off, err)
		}
		if err := acc.Write(next, 0xcafef00d); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		// The write aliased onto the first register of the mapped page.
		got, err := regs.Read(m, radioBase)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if got != 0xcafef00d {
			t.Errorf("Read(base) = 0x%x, want 0xcafef00d", got)
		}
	})
}

func TestRequireAligned(t *testing.T) {
	mem := mmaptest.NewMemory()
	m := mapPage(t, mem, radioBase)
	defer m.Unmap()

	acc := regs.Accessor{Mapping: m, RequireAligned: true}
	if err := acc.Write(radioBase+1, 1); !errors.Is(err, regs.ErrMisaligned) {
		t.Errorf("Write() error = %v, want ErrMisaligned", err)
	}
	if err := acc.Write(radioBase+4, 1); err != nil {
		t.Errorf("Write() error = %v", err)
	}
}

func TestLastBytesOfPage(t *testing.T) {
	mem := mmaptest.NewMemory()
	m := mapPage(t, mem, radioBase)
	defer m.Unmap()

	if err := regs.Write(m, radioBase+mmap.PageSize-2, 1); !errors.Is(err, mmap.ErrOutOfRange) {
		t.Errorf("Write() error = %v, want ErrOutOfRange", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    regs.Policy
		wantErr bool
	}{
		{"", regs.Strict, false},
		{"strict", regs.Strict, false},
		{"wrap", regs.Wrap, false},
		{"loose", regs.Strict, true},
	}
	for _, tt := range tests {
		got, err := regs.ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

var testBlock = regs.Block{
	Name: "radio",
	Base: radioBase,
	Registers: map[string]uint64{
		"fake_adc_pinc": 0x0,
		"tuner_pinc":    0x4,
		"control":       0x8,
		"timer":         0xc,
	},
}

func TestBlockNames(t *testing.T) {
	want := []string{"fake_adc_pinc", "tuner_pinc", "control", "timer"}
	if diff := cmp.Diff(want, testBlock.Names()); diff != "" {
		t.Errorf("Names() (-want +got):\n%s", diff)
	}
}

func TestBlockValidate(t *testing.T) {
	bad := regs.Block{Name: "bad", Base: radioBase, Registers: map[string]uint64{"far": mmap.PageSize}}
	if err := bad.Validate(); !errors.Is(err, regs.ErrOutOfPage) {
		t.Errorf("Validate() error = %v, want ErrOutOfPage", err)
	}
	if err := (regs.Block{Name: "empty"}).Validate(); err == nil {
		t.Error("Validate() of empty block returned nil")
	}
	if err := testBlock.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPeripheral(t *testing.T) {
	mem := mmaptest.NewMemory()
	p, err := regs.OpenBlockDevice(mem.Open, mmap.DevMemPath, testBlock, regs.Strict)
	if err != nil {
		t.Fatalf("OpenBlockDevice() error = %v", err)
	}

	if err := p.WriteReg("control", 1); err != nil {
		t.Fatalf("WriteReg() error = %v", err)
	}
	if got, err := p.ReadReg("control"); err != nil || got != 1 {
		t.Errorf("ReadReg() = %d, %v, want 1, nil", got, err)
	}

	// The register landed at base+8 in the simulated page.
	page := mem.Page(radioBase)
	if page[8] != 1 {
		t.Errorf("page[8] = %d, want 1", page[8])
	}

	if addr, err := p.Addr("timer"); err != nil || addr != radioBase+0xc {
		t.Errorf("Addr(timer) = 0x%x, %v", addr, err)
	}
	if err := p.WriteReg("volume", 1); !errors.Is(err, regs.ErrUnknownRegister) {
		t.Errorf("WriteReg(volume) error = %v, want ErrUnknownRegister", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := p.ReadReg("control"); !errors.Is(err, mmap.ErrReleased) {
		t.Errorf("ReadReg() after Close error = %v, want ErrReleased", err)
	}
	if n := mem.Outstanding(); n != 0 {
		t.Errorf("Outstanding() = %d, want 0", n)
	}
}

func TestOpenBlockMapFailure(t *testing.T) {
	mem := mmaptest.NewMemory()
	mem.FailMmap = true

	p, err := regs.OpenBlockDevice(mem.Open, mmap.DevMemPath, testBlock, regs.Strict)
	if p != nil {
		t.Fatalf("peripheral is present: %v", p)
	}
	if !errors.Is(err, mmap.ErrMapping) {
		t.Errorf("error isn't ErrMapping: %v", err)
	}
	if n := mem.Outstanding(); n != 0 {
		t.Errorf("Outstanding() = %d, want 0", n)
	}
}
