package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/fcurrie/zybo-radio-golang/internal/config"
	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
	"github.com/fcurrie/zybo-radio-golang/pkg/radio"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
)

const usage = `usage: radio-tuner [-config file] <command> [flags]

commands:
  demo     enable the radio, tune to 30MHz, play the tune and benchmark reads
  tune     set the tuner (and optionally the fake ADC) frequency
  play     play the tune on the fake ADC
  bench    measure register read throughput
  plot     draw the tune to a PNG or SVG file
  stream   stream FIFO samples over UDP with an interactive console
  peek     read a 32-bit register by physical address
  poke     write a 32-bit register by physical address
`

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults built in)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}

	// Handle shutdown gracefully
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	var err error
	switch cmd {
	case "demo":
		err = runDemo(ctx, cfg, args)
	case "tune":
		err = runTune(cfg, args)
	case "play":
		err = runPlay(ctx, cfg, args)
	case "bench":
		err = runBench(cfg, args)
	case "plot":
		err = runPlot(cfg, args)
	case "stream":
		err = runStream(ctx, cfg, args)
	case "peek":
		err = runPeek(args)
	case "poke":
		err = runPoke(args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		stop()
		log.Fatalf("%s: %v", cmd, err)
	}
}

func runDemo(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	freq := fs.Float64("freq", 30e6, "Tuner frequency in Hz")
	reads := fs.Int("n", radio.DefaultBenchmarkReads, "Benchmark reads")
	fs.Parse(args)

	rd, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer rd.Close()

	if err := rd.tuner.Reset(); err != nil {
		return err
	}
	if err := rd.tuner.Enable(); err != nil {
		return err
	}
	log.Printf("Tuning radio to %.0f Hz", *freq)
	if err := rd.tuner.Tune(*freq); err != nil {
		return err
	}
	log.Printf("Playing tune near %.0f Hz", *freq)
	if err := rd.tuner.PlayTune(ctx, *freq, cfg.Notes()); err != nil {
		return err
	}

	res, err := rd.tuner.Benchmark(*reads)
	if err != nil {
		return err
	}
	printBenchmark(res)
	return nil
}

func runTune(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tune", flag.ExitOnError)
	freq := fs.Float64("freq", 30e6, "Tuner frequency in Hz")
	adc := fs.Float64("adc", -1, "Fake ADC frequency in Hz (negative leaves it unchanged)")
	enable := fs.Bool("enable", true, "Take the radio out of reset first")
	fs.Parse(args)

	rd, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer rd.Close()

	if *enable {
		if err := rd.tuner.Enable(); err != nil {
			return err
		}
	}
	if *adc >= 0 {
		if err := rd.tuner.SetADCFrequency(*adc); err != nil {
			return err
		}
	}
	return rd.tuner.Tune(*freq)
}

func runPlay(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	base := fs.Float64("base", 30e6, "Frequency added to every note in Hz")
	fs.Parse(args)

	rd, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer rd.Close()

	log.Printf("Playing %d notes (%v)", len(cfg.Notes()), radio.Duration(cfg.Notes(), cfg.Tempo()))
	return rd.tuner.PlayTune(ctx, *base, cfg.Notes())
}

func runBench(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	reads := fs.Int("n", radio.DefaultBenchmarkReads, "Number of timer reads")
	fs.Parse(args)

	rd, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer rd.Close()

	res, err := rd.tuner.Benchmark(*reads)
	if err != nil {
		return err
	}
	printBenchmark(res)
	return nil
}

func printBenchmark(r radio.BenchmarkResult) {
	fmt.Printf("Elapsed time in clocks = %d\n", r.Clocks)
	fmt.Printf("You transferred %d bytes of data in %f seconds\n", r.Bytes, r.Seconds)
	fmt.Printf("Measured Transfer throughput = %f Mbytes/sec\n", r.MBps)
}

func runPlot(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	out := fs.String("o", "tune.png", "Output file (.png or .svg)")
	fs.Parse(args)

	f, err := os.Create(*out)
	if err != nil {
		return err
	}

	if filepath.Ext(*out) == ".svg" {
		err = radio.PlotTune(f, cfg.Notes())
	} else {
		err = radio.RenderTunePNG(f, cfg.Notes())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Printf("Wrote %s", *out)
	return nil
}

func parseAddr(fs *flag.FlagSet, name string) (uint64, error) {
	f := fs.Lookup(name)
	if f == nil || f.Value.String() == "" {
		return 0, fmt.Errorf("-%s is required", name)
	}
	v, err := strconv.ParseUint(f.Value.String(), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad -%s: %w", name, err)
	}
	return v, nil
}

func runPeek(args []string) error {
	fs := flag.NewFlagSet("peek", flag.ExitOnError)
	fs.String("addr", "", "Physical address, e.g. 0x43c0000c")
	fs.Parse(args)

	addr, err := parseAddr(fs, "addr")
	if err != nil {
		return err
	}

	m, err := mmap.Map(addr)
	if err != nil {
		return err
	}
	defer m.Unmap()

	v, err := regs.Read(m, addr)
	if err != nil {
		return err
	}
	fmt.Printf("0x%08x: 0x%08x (%d)\n", addr, v, v)
	return nil
}

func runPoke(args []string) error {
	fs := flag.NewFlagSet("poke", flag.ExitOnError)
	fs.String("addr", "", "Physical address, e.g. 0x43c00008")
	fs.String("value", "", "32-bit value")
	fs.Parse(args)

	addr, err := parseAddr(fs, "addr")
	if err != nil {
		return err
	}
	value, err := parseAddr(fs, "value")
	if err != nil {
		return err
	}
	if value > 0xffffffff {
		return fmt.Errorf("value 0x%x does not fit in 32 bits", value)
	}

	m, err := mmap.Map(addr)
	if err != nil {
		return err
	}
	defer m.Unmap()

	return regs.Write(m, addr, uint32(value))
}
