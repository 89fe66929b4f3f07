package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fcurrie/zybo-radio-golang/internal/config"
	"github.com/fcurrie/zybo-radio-golang/internal/console"
	"github.com/fcurrie/zybo-radio-golang/pkg/fifo"
	"github.com/fcurrie/zybo-radio-golang/pkg/mmap"
	"github.com/fcurrie/zybo-radio-golang/pkg/radio"
	"github.com/fcurrie/zybo-radio-golang/pkg/regs"
	"github.com/fcurrie/zybo-radio-golang/pkg/stream"
)

// session is the console's view of the radio plus an on/off sample stream.
type session struct {
	*radio.Tuner

	ctx  context.Context
	g    *errgroup.Group
	src  stream.SampleSource
	conn net.Conn
	cfg  *config.Config

	// failed receives the first error that ended a stream
	failed chan error

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	streamer *stream.Streamer
}

func (s *session) ToggleStreaming() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.stopLocked()
		return false, nil
	}

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	st := &stream.Streamer{Source: s.src, Conn: s.conn, PollInterval: s.cfg.PollInterval()}
	s.g.Go(func() error {
		defer close(done)
		err := st.Run(ctx)
		if err != nil {
			select {
			case s.failed <- err:
			default:
			}
		}
		return err
	})
	s.cancel, s.done, s.streamer = cancel, done, st
	log.Printf("Streaming to %s", s.conn.RemoteAddr())
	return true, nil
}

func (s *session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	log.Printf("Streaming stopped after %d packets", s.streamer.Sent())
	s.cancel, s.done, s.streamer = nil, nil, nil
}

func runStream(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	dest := fs.String("dest", cfg.Stream.Dest, "Destination host:port")
	start := fs.Bool("start", false, "Start streaming immediately")
	fs.Parse(args)

	rd, err := openRadio(cfg)
	if err != nil {
		return err
	}
	defer rd.Close()

	fp, err := regs.OpenBlockDevice(mmap.OpenDevMem, mmap.DevMemPath, cfg.FIFO, cfg.Policy())
	if err != nil {
		return fmt.Errorf("failed to open fifo: %w", err)
	}
	defer fp.Close()

	conn, err := net.Dial("udp", *dest)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", *dest, err)
	}
	defer conn.Close()

	// Turn the radio on with an audible tone
	if err := rd.tuner.Reset(); err != nil {
		return err
	}
	if err := rd.tuner.Enable(); err != nil {
		return err
	}
	if err := rd.tuner.SetADCFrequency(1000); err != nil {
		return err
	}
	if err := rd.tuner.Tune(0); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sess := &session{
		Tuner:  rd.tuner,
		ctx:    gctx,
		g:      g,
		src:    fifo.NewSource(fp),
		conn:   conn,
		cfg:    cfg,
		failed: make(chan error, 1),
	}
	if *start {
		sess.ToggleStreaming()
	}

	g.Go(func() error {
		defer sess.stop()
		return console.New(sess).Run(gctx)
	})

	errc := make(chan error, 1)
	go func() { errc <- g.Wait() }()

	select {
	case err := <-errc:
		return err
	case <-gctx.Done():
		// The console may be blocked on stdin; stop the stream and leave it.
		log.Println("Shutting down...")
		sess.stop()
		select {
		case err := <-sess.failed:
			return err
		default:
			return nil
		}
	}
}
