package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the MIDI driver

	"github.com/justyntemme/plughost/internal/printer"
	"github.com/justyntemme/plughost/pkg/driver/mididev"
	"github.com/justyntemme/plughost/pkg/driver/portaudio"
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/plugin"
)

var (
	runMidiPort  string
	runListMidi  bool
	runIdleEvery time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [plugin]...",
	Short: "Run a rack on the default audio device",
	Long: `Load the plugins as a serial rack and process the default audio device
until interrupted. Plugins listed in the configuration file are loaded
first.

With --midi, notes from the named MIDI input are sent to the first plugin.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMidiPort, "midi", "", "MIDI input port feeding the first plugin")
	runCmd.Flags().BoolVar(&runListMidi, "list-midi", false, "list MIDI inputs and exit")
	runCmd.Flags().DurationVar(&runIdleEvery, "idle", 50*time.Millisecond, "notification polling interval")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runListMidi {
		for _, name := range mididev.Ports() {
			printer.Info("%s\n", name)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	var rack []*plugin.Instance
	for _, pc := range cfg.Plugins {
		inst, err := e.AddPlugin(pc.Initializer())
		if err != nil {
			return printer.Error("failed to load configured plugin", err.Error(), nil)
		}
		rack = append(rack, inst)
	}
	for _, ref := range args {
		inst, err := addPlugin(e, ref)
		if err != nil {
			return err
		}
		rack = append(rack, inst)
	}
	if len(rack) == 0 {
		return printer.Error("nothing to run", "No plugins were given.", []string{
			"Pass plugin files as arguments",
			"List plugins in the configuration file",
		})
	}

	logger := newLogger(cfg)

	if runMidiPort != "" {
		in, err := mididev.Open(runMidiPort, rack[0], e, logger.Named("midi"))
		if err != nil {
			return printer.Error("cannot open MIDI input", err.Error(), []string{"Run 'plughost run --list-midi' to see the inputs"})
		}
		defer in.Close()
	}

	stream, err := portaudio.Open(portaudio.Config{
		InputChannels:  cfg.Channels,
		OutputChannels: cfg.Channels,
		SampleRate:     cfg.SampleRate,
		BufferSize:     cfg.BufferSize,
	}, e, logger.Named("audio"))
	if err != nil {
		return printer.Error("cannot open audio device", err.Error(), nil)
	}
	defer stream.Close()

	if rate := stream.SampleRate(); rate != cfg.SampleRate {
		if err := e.SetSampleRate(rate); err != nil {
			return err
		}
	}

	e.SetCallback(func(id uint32, n plugin.Notification) {
		logger.Debug("plugin %d: %s %d %v", id, n.Kind, n.Index, n.Value)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := stream.Start(); err != nil {
		return printer.Error("cannot start audio", err.Error(), nil)
	}
	e.Transport().Play()
	printer.Success("running %d plugins on %s, Ctrl-C to stop\n", len(rack), stream.Info())

	idle(ctx, e, runIdleEvery)

	e.Transport().Pause()
	if err := stream.Stop(); err != nil {
		return err
	}
	printer.Info("\npeak load %.1f%%\n", e.PeakLoad())
	return nil
}

// idle delivers notifications until ctx is done.
func idle(ctx context.Context, e *engine.Engine, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Idle()
			return
		case <-ticker.C:
			e.Idle()
		}
	}
}
