package main

import (
	"errors"
	"fmt"

	"github.com/fcurrie/zybo-radio-golang/internal/config"
	"github.com/fcurrie/zybo-radio-golang/pkg/gpio"
	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
	"github.com/fcurrie/zybo-radio-golang/pkg/radio"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

// radioDevice bundles everything opened for the radio peripheral.
type radioDevice struct {
	periph *regs.Peripheral
	reset  *gpio.Line
	tuner  *radio.Tuner
}

func openRadio(cfg *config.Config) (*radioDevice, error) {
	return openRadioDevice(cfg, mmap.OpenDevMem)
}

func openRadioDevice(cfg *config.Config, open mmap.Opener) (*radioDevice, error) {
	p, err := regs.OpenBlockDevice(open, mmap.DevMemPath, cfg.Radio, cfg.Policy())
	if err != nil {
		return nil, fmt.Errorf("failed to open radio: %w", err)
	}

	rd := &radioDevice{periph: p, tuner: radio.NewTuner(p)}
	rd.tuner.SysClock = cfg.SysClock
	rd.tuner.Tempo = cfg.Tempo()

	if rl := cfg.ResetLine; rl != nil {
		line, err := gpio.RequestOutput(rl.Chip, rl.Offset, 0)
		if err != nil {
			p.Close()
			return nil, err
		}
		rd.reset = line
		rd.tuner.ResetLine = line
		rd.tuner.ResetPulse = cfg.ResetPulse()
	}
	return rd, nil
}

func (rd *radioDevice) Close() error {
	var errs []error
	if rd.reset != nil {
		errs = append(errs, rd.reset.Close())
	}
	errs = append(errs, rd.periph.Close())
	return errors.Join(errs...)
}
