// Package engine hosts plugin instances: it constructs them, owns the
// transport and runs every enabled instance once per audio block.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/process"
	"github.com/justyntemme/plughost/pkg/midi"
	"github.com/justyntemme/plughost/pkg/plugin"
)

var (
	// ErrUnknownFormat is returned for a format that was never registered.
	ErrUnknownFormat = errors.New("unknown plugin format")
	// ErrPluginNotFound is returned for an unknown plugin id.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrClosed is returned once the engine is closed.
	ErrClosed = errors.New("engine is closed")
	// ErrTooManyPlugins is returned when max_plugins is reached.
	ErrTooManyPlugins = errors.New("maximum number of plugins reached")
)

// Initializer describes a plugin to add.
type Initializer struct {
	Format   string
	Filename string
	Label    string
	Name     string
	// Options defaults to plugin.DefaultOptions when zero.
	Options     plugin.Options
	CtrlChannel *int8
	// CompileFlags defaults to adapter.CompileNoGfx when zero.
	CompileFlags adapter.CompileFlags
}

// Callback receives drained plugin notifications in Idle.
type Callback func(pluginID uint32, n plugin.Notification)

// Engine runs a rack of plugins in series.
type Engine struct {
	cfg      *Config
	logger   *debug.Logger
	formats  *adapter.Registry
	profiler *debug.Profiler
	meter    debug.LoadMeter

	transport *Transport

	// mu serializes control context callers
	mu      sync.Mutex
	plugins []*plugin.Instance
	nextID  uint32
	closed  bool

	// regMu guards name and client bookkeeping, which plugin.Open reaches
	// while mu is held
	regMu   sync.Mutex
	names   map[string]bool
	clients int

	// rt is tried by ProcessBlock and held while buffers are resized
	rt     sync.Mutex
	rack   atomic.Pointer[[]*plugin.Instance]
	stages [2][][]float32

	// events is filled by control callers and drained once per block
	events      *midi.EventQueue
	blockEvents *midi.EventBuffer
	evStages    [2]*midi.EventBuffer

	callbackMu sync.Mutex
	callback   Callback
}

// New creates an engine from a validated configuration.
func New(cfg *Config, logger *debug.Logger) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = debug.Default()
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		formats:   adapter.NewRegistry(),
		profiler:  debug.NewProfiler(),
		transport: newTransport(),
		names:     make(map[string]bool),

		events:      midi.NewEventQueue(midi.DefaultBufferCapacity),
		blockEvents: midi.NewEventBuffer(midi.DefaultBufferCapacity),
		evStages: [2]*midi.EventBuffer{
			midi.NewEventBuffer(midi.DefaultBufferCapacity),
			midi.NewEventBuffer(midi.DefaultBufferCapacity),
		},
	}
	e.rack.Store(&[]*plugin.Instance{})
	e.allocateStages()
	return e
}

func (e *Engine) allocateStages() {
	for s := range e.stages {
		e.stages[s] = make([][]float32, e.cfg.Channels)
		for c := range e.stages[s] {
			e.stages[s][c] = make([]float32, e.cfg.BufferSize)
		}
	}
}

// RegisterFormat makes a plugin format available to AddPlugin.
func (e *Engine) RegisterFormat(f adapter.Format) error {
	return e.formats.Register(f)
}

// Formats returns the format registry.
func (e *Engine) Formats() *adapter.Registry {
	return e.formats
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg
}

// Transport returns the engine transport.
func (e *Engine) Transport() *Transport {
	return e.transport
}

// Profiler returns the profiler timing structural operations.
func (e *Engine) Profiler() *debug.Profiler {
	return e.profiler
}

// Load returns the DSP load of the last block in percent of the budget.
func (e *Engine) Load() float64 {
	return e.meter.Load()
}

// PeakLoad returns the highest block load seen, in percent.
func (e *Engine) PeakLoad() float64 {
	return e.meter.Peak()
}

// SetCallback installs the notification callback used by Idle.
func (e *Engine) SetCallback(cb Callback) {
	e.callbackMu.Lock()
	defer e.callbackMu.Unlock()
	e.callback = cb
}

// plugin.Host

func (e *Engine) SampleRate() float64                { return e.cfg.SampleRate }
func (e *Engine) BufferSize() int                    { return e.cfg.BufferSize }
func (e *Engine) ProcessMode() plugin.ProcessMode    { return e.cfg.Mode() }
func (e *Engine) MaxPortNameSize() int               { return e.cfg.MaxPortNameSize }
func (e *Engine) SearchPaths(format string) []string { return e.cfg.Paths[format] }

// UniqueName returns name, or name with the lowest free " (N)" suffix.
// Names are taken by client registration and freed when the client closes.
func (e *Engine) UniqueName(name string) string {
	e.regMu.Lock()
	defer e.regMu.Unlock()

	unique := name
	for n := 2; e.names[unique]; n++ {
		unique = name + " (" + strconv.Itoa(n) + ")"
	}
	return unique
}

// AddClient registers the client of a plugin being constructed.
func (e *Engine) AddClient(inst *plugin.Instance) (plugin.Client, error) {
	e.regMu.Lock()
	defer e.regMu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	if e.clients >= e.cfg.MaxPlugins {
		return nil, ErrTooManyPlugins
	}
	if e.names[inst.Name()] {
		return nil, fmt.Errorf("name %q is taken", inst.Name())
	}

	e.clients++
	e.names[inst.Name()] = true
	return &client{engine: e, id: inst.ID(), name: inst.Name()}, nil
}

// AddPlugin constructs, activates and enables a plugin and appends it to
// the rack.
func (e *Engine) AddPlugin(init Initializer) (*plugin.Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isClosed() {
		return nil, ErrClosed
	}

	format, ok := e.formats.Get(init.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, init.Format)
	}

	options := init.Options
	if options == 0 {
		options = plugin.DefaultOptions
	}
	flags := init.CompileFlags
	if flags == 0 {
		flags = adapter.CompileNoGfx
	}

	defer e.profiler.Start("add-plugin")()

	inst, err := plugin.Open(e, format, plugin.Initializer{
		ID:           e.nextID,
		Filename:     init.Filename,
		Name:         init.Name,
		Label:        init.Label,
		Options:      options,
		CompileFlags: flags,
	}, e.logger)
	if err != nil {
		return nil, err
	}
	e.nextID++

	if init.CtrlChannel != nil {
		if err := inst.SetCtrlChannel(*init.CtrlChannel); err != nil {
			inst.Dispose()
			return nil, err
		}
	}

	if err := inst.Activate(); err != nil {
		inst.Dispose()
		return nil, err
	}
	inst.SetEnabled(true)

	e.plugins = append(e.plugins, inst)
	e.publishRack()
	return inst, nil
}

// RemovePlugin takes a plugin out of the rack and disposes it.
func (e *Engine) RemovePlugin(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k, inst := range e.plugins {
		if inst.ID() != id {
			continue
		}
		e.plugins = append(e.plugins[:k:k], e.plugins[k+1:]...)
		e.publishRack()
		inst.Dispose()
		return nil
	}
	return fmt.Errorf("%w: %d", ErrPluginNotFound, id)
}

// publishRack hands the audio thread a fresh copy of the plugin list.
func (e *Engine) publishRack() {
	rack := make([]*plugin.Instance, len(e.plugins))
	copy(rack, e.plugins)
	e.rack.Store(&rack)
}

// Plugin returns a plugin by id.
func (e *Engine) Plugin(id uint32) (*plugin.Instance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, inst := range e.plugins {
		if inst.ID() == id {
			return inst, true
		}
	}
	return nil, false
}

// Plugins returns the rack in processing order.
func (e *Engine) Plugins() []*plugin.Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*plugin.Instance(nil), e.plugins...)
}

// SendControl queues a control event for the first plugin of the rack.
// It is delivered at the start of the next block.
func (e *Engine) SendControl(channel uint8, ctype midi.ControlType, param uint16, normalized float64) error {
	return e.events.PushControl(channel, ctype, param, normalized)
}

// SendMidi queues a short MIDI message for the first plugin of the rack.
// Controller and program change messages arrive as control events.
func (e *Engine) SendMidi(port uint8, data []byte) error {
	return e.events.PushMidi(port, data)
}

// PendingEvents returns the number of queued engine events.
func (e *Engine) PendingEvents() int {
	return e.events.Len()
}

// SetBufferSize changes the block size and reloads every plugin. Blocks
// stay silent until every plugin is reloaded.
func (e *Engine) SetBufferSize(frames int) error {
	if frames <= 0 || frames > MaxBufferSize {
		return fmt.Errorf("buffer size must be between 1 and %d, got %d", MaxBufferSize, frames)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rt.Lock()
	defer e.rt.Unlock()

	e.cfg.BufferSize = frames
	e.allocateStages()
	return e.reloadAll()
}

// SetSampleRate changes the sample rate and reloads every plugin. Blocks
// stay silent until every plugin is reloaded.
func (e *Engine) SetSampleRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %v", rate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.rt.Lock()
	defer e.rt.Unlock()

	e.cfg.SampleRate = rate
	return e.reloadAll()
}

func (e *Engine) reloadAll() error {
	defer e.profiler.Start("reload")()

	var errs []error
	for _, inst := range e.plugins {
		if err := inst.Reload(); err != nil {
			e.logger.Error("reloading %s: %v", inst.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", inst.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// ProcessBlock runs one block through the rack. It is the audio callback
// and never blocks: while the engine is being reconfigured the output is
// silent. Queued engine events go to the first plugin; each plugin's MIDI
// output replaces the events seen by the next one.
func (e *Engine) ProcessBlock(in, out [][]float32, frames int) {
	if !e.rt.TryLock() {
		process.ClearAll(out)
		return
	}
	defer e.rt.Unlock()

	start := time.Now()
	if frames > e.cfg.BufferSize {
		frames = e.cfg.BufferSize
	}

	info := e.transport.Info(e.cfg.SampleRate)

	// on contention the events stay queued for the next block
	e.blockEvents.Clear()
	e.events.TryDrainInto(e.blockEvents)

	cur, events := in, e.blockEvents
	for k, inst := range *e.rack.Load() {
		next := e.stages[k%2]
		fwd := e.evStages[0]
		if fwd == events {
			fwd = e.evStages[1]
		}
		if inst.ProcessEvents(cur, next, frames, info, events, fwd) {
			events = fwd
		}
		cur = next
	}

	for c := range out {
		if c < len(cur) {
			copy(out[c][:frames], cur[c][:frames])
		} else {
			clear(out[c][:frames])
		}
	}

	e.transport.advance(frames)
	e.meter.Update(time.Since(start), frames, e.cfg.SampleRate)
}

// Idle delivers notifications queued by the audio thread. Call it
// periodically from the control context.
func (e *Engine) Idle() int {
	e.callbackMu.Lock()
	cb := e.callback
	e.callbackMu.Unlock()

	total := 0
	for _, inst := range e.Plugins() {
		id := inst.ID()
		if cb == nil {
			total += inst.DrainNotifications(nil)
			continue
		}
		total += inst.DrainNotifications(func(n plugin.Notification) {
			cb(id, n)
		})
	}
	return total
}

func (e *Engine) isClosed() bool {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	return e.closed
}

// Close disposes every plugin. The engine accepts no plugins afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.regMu.Lock()
	e.closed = true
	e.regMu.Unlock()

	plugins := e.plugins
	e.plugins = nil
	e.publishRack()

	for k := len(plugins) - 1; k >= 0; k-- {
		plugins[k].Dispose()
	}

	e.logger.Debug("closed\n%s", e.profiler.Report())
	return nil
}

// client is an instance's registration with the engine.
type client struct {
	engine  *Engine
	id      uint32
	name    string
	active  atomic.Bool
	latency atomic.Uint32
	closed  atomic.Bool
}

func (c *client) Activate()                { c.active.Store(true) }
func (c *client) Deactivate()              { c.active.Store(false) }
func (c *client) IsActive() bool           { return c.active.Load() }
func (c *client) SetLatency(frames uint32) { c.latency.Store(frames) }

func (c *client) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.engine.regMu.Lock()
	c.engine.clients--
	delete(c.engine.names, c.name)
	c.engine.regMu.Unlock()
}
