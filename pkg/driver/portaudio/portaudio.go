// Package portaudio drives an engine from a portaudio stream callback.
package portaudio

import (
	"fmt"
	"strings"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/justyntemme/plughost/pkg/framework/debug"
)

// Processor renders one block. *engine.Engine implements it.
type Processor interface {
	ProcessBlock(in, out [][]float32, frames int)
}

// Config selects the stream layout.
type Config struct {
	InputChannels  int
	OutputChannels int
	SampleRate     float64
	BufferSize     int
}

// Stream is an open portaudio stream bound to a Processor.
type Stream struct {
	stream *pa.Stream
	proc   Processor
	logger *debug.Logger
	info   string

	closeOnce sync.Once
}

// Open initializes portaudio and opens the default stream. The stream is
// stopped until Start.
func Open(cfg Config, proc Processor, logger *debug.Logger) (*Stream, error) {
	if logger == nil {
		logger = debug.Discard()
	}
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("unable to set up portaudio: %w", err)
	}

	d, err := pa.DefaultOutputDevice()
	if err != nil {
		pa.Terminate()
		return nil, fmt.Errorf("no default output device: %w", err)
	}

	s := &Stream{proc: proc, logger: logger}
	stream, err := pa.OpenDefaultStream(
		cfg.InputChannels, cfg.OutputChannels,
		cfg.SampleRate,
		cfg.BufferSize,
		s.callback,
	)
	if err != nil {
		pa.Terminate()
		return nil, fmt.Errorf("unable to open stream: %w", err)
	}
	s.stream = stream

	api := "unknown"
	if h, err := pa.DefaultHostApi(); err == nil {
		api = h.Name
	}
	s.info = fmt.Sprintf("%s, %s, device %s, %d in, %d out, %.f Hz",
		strings.Split(pa.VersionText(), ",")[0],
		api,
		d.Name,
		cfg.InputChannels,
		cfg.OutputChannels,
		stream.Info().SampleRate,
	)
	logger.Info("opened %s", s.info)
	return s, nil
}

// callback runs on the portaudio thread.
func (s *Stream) callback(in, out [][]float32) {
	if len(out) == 0 {
		return
	}
	s.proc.ProcessBlock(in, out, len(out[0]))
}

// Info describes the stream.
func (s *Stream) Info() string { return s.info }

// SampleRate returns the rate the device actually runs at.
func (s *Stream) SampleRate() float64 { return s.stream.Info().SampleRate }

// Start starts calling the processor.
func (s *Stream) Start() error { return s.stream.Start() }

// Stop stops the stream after pending buffers play.
func (s *Stream) Stop() error { return s.stream.Stop() }

// Close stops the stream and terminates portaudio.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := s.stream.Close(); cerr != nil {
			err = cerr
		}
		if terr := pa.Terminate(); terr != nil {
			s.logger.Error("termination error: %v", terr)
			if err == nil {
				err = terr
			}
		}
	})
	return err
}
