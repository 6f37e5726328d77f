// Package plugin implements the uniform runtime every loaded plugin runs
// in: lifecycle, parameter and port model, per-block event routing and
// the real-time / control context hand-off.
package plugin

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/justyntemme/plughost/pkg/adapter"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/param"
	"github.com/justyntemme/plughost/pkg/framework/port"
	"github.com/justyntemme/plughost/pkg/framework/process"
	"github.com/justyntemme/plughost/pkg/framework/state"
	"github.com/justyntemme/plughost/pkg/framework/transport"
	"github.com/justyntemme/plughost/pkg/midi"
)

// ExternalNoteCapacity is the size of the external note queue.
const ExternalNoteCapacity = 512

// TryLocker is a mutex that also supports a non-blocking attempt.
type TryLocker = midi.TryLocker

// Host is the engine side of an instance.
type Host interface {
	SampleRate() float64
	BufferSize() int
	ProcessMode() ProcessMode
	MaxPortNameSize() int
	// SearchPaths returns the configured directories for a format.
	SearchPaths(format string) []string
	UniqueName(name string) string
	AddClient(inst *Instance) (Client, error)
}

// Client is an instance's registration with the engine.
type Client interface {
	Activate()
	Deactivate()
	IsActive() bool
	SetLatency(frames uint32)
	Close()
}

// State is a lifecycle state.
type State int32

const (
	StateUnloaded State = iota
	StateLoaded
	StateCompiled
	StateActivated
	StateDeactivated
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateCompiled:
		return "compiled"
	case StateActivated:
		return "activated"
	case StateDeactivated:
		return "deactivated"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Initializer describes the instance to construct.
type Initializer struct {
	ID           uint32
	Filename     string
	Name         string
	Label        string
	Options      Options
	CompileFlags adapter.CompileFlags
}

// Instance is one loaded plugin.
//
// Control context methods must be serialized by the caller. Process and
// the RT setters run on the audio thread.
type Instance struct {
	id     uint32
	uid    string
	host   Host
	format adapter.Format
	effect adapter.Effect
	logger *debug.Logger

	// master is held by structural operations. Process only tries it.
	master TryLocker
	state  atomic.Int32

	enabled  atomic.Bool
	reloaded bool

	name     string
	filename string
	root     string
	label    string

	params  *param.Model
	ports   *port.Table
	hints   Hints
	options atomic.Uint32

	ctrlChannel atomic.Int32
	latency     atomic.Uint32

	dryWet       atomicFloat
	volume       atomicFloat
	balanceLeft  atomicFloat
	balanceRight atomicFloat
	program      atomic.Int32

	extNotes *midi.NoteQueue
	postRT   *postRtQueue
	eventIn  *midi.EventBuffer
	eventOut *midi.EventBuffer

	listenerMu sync.Mutex
	listener   Listener

	router  *Router
	bridge  *transport.Bridge
	ctx     *process.Context
	chunks  *state.Manager
	client  Client
	faults  atomic.Uint64

	// per-channel slice headers and spare outputs, sized in Reload
	audioIn  [][]float32
	audioOut [][]float32
	spareOut [][]float32
}

// New creates an unloaded instance for a format.
func New(host Host, format adapter.Format, id uint32, logger *debug.Logger) *Instance {
	if logger == nil {
		logger = debug.Default()
	}

	inst := &Instance{
		id:       id,
		uid:      uuid.New().String(),
		host:     host,
		format:   format,
		logger:   logger,
		master:   &sync.Mutex{},
		params:   param.Empty(),
		ports:    port.NewBuilder(port.NamePolicy{}).Build(),
		extNotes: midi.NewNoteQueue(ExternalNoteCapacity),
		postRT:   newPostRtQueue(),
		eventIn:  midi.NewEventBuffer(midi.DefaultBufferCapacity),
		eventOut: midi.NewEventBuffer(midi.DefaultBufferCapacity),
		bridge:   transport.NewBridge(host.SampleRate()),
		ctx:      process.NewContext(host.BufferSize(), host.SampleRate()),
	}
	inst.ctrlChannel.Store(0)
	inst.dryWet.Store(1)
	inst.volume.Store(1)
	inst.balanceLeft.Store(-1)
	inst.balanceRight.Store(1)
	inst.program.Store(-1)
	inst.router = newRouter(inst)
	inst.chunks = state.NewManager(effectState{inst}, func() bool {
		return inst.Options().Has(OptionUseChunks)
	})
	return inst
}

// Open runs the whole construction sequence: load, compile, client
// registration and the first reload. On failure the partially built
// instance is disposed and only the error is returned.
func Open(host Host, format adapter.Format, init Initializer, logger *debug.Logger) (*Instance, error) {
	inst := New(host, format, init.ID, logger)

	err := inst.Load(init.Filename, init.Label)
	if err == nil {
		err = inst.Compile(init.CompileFlags)
	}
	if err == nil {
		err = inst.Register(init.Name, init.Options)
	}
	if err == nil {
		err = inst.Reload()
	}
	if err != nil {
		inst.logger.Error("plugin %q: %v", init.Filename+init.Label, err)
		inst.Dispose()
		return nil, err
	}

	inst.logger.Info("loaded %s (%s) with %d parameters", inst.name, inst.label, inst.params.Count())
	return inst, nil
}

// ID returns the engine-assigned id.
func (i *Instance) ID() uint32 { return i.id }

// UID returns the unique id of this instance.
func (i *Instance) UID() string { return i.uid }

// State returns the lifecycle state.
func (i *Instance) State() State { return State(i.state.Load()) }

func (i *Instance) setState(s State) {
	i.state.Store(int32(s))
}

// Load resolves the plugin reference and loads it through the format.
func (i *Instance) Load(filename, label string) error {
	if i.State() != StateUnloaded {
		return fmt.Errorf("%w: load in state %s", ErrInvalidState, i.State())
	}

	file, root, err := resolve(filename, label, i.host.SearchPaths(i.format.Name()))
	if err != nil {
		return err
	}

	effect, err := i.format.Load(file, root)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("failed to load plugin: %w", err)
	}

	i.effect = effect
	i.filename = file
	i.root = root
	i.label = labelFor(file, root)
	i.setState(StateLoaded)
	return nil
}

// Compile runs the format's compile step. On failure the instance stays
// loaded.
func (i *Instance) Compile(flags adapter.CompileFlags) error {
	if i.State() != StateLoaded {
		return fmt.Errorf("%w: compile in state %s", ErrInvalidState, i.State())
	}

	if err := i.format.Compile(i.effect, flags); err != nil {
		return fmt.Errorf("%w: %v", ErrCompile, err)
	}

	i.setState(StateCompiled)
	return nil
}

// Register names the instance, registers its client with the host and
// applies the requested options masked by the available ones.
func (i *Instance) Register(name string, options Options) error {
	if i.State() != StateCompiled {
		return fmt.Errorf("%w: register in state %s", ErrInvalidState, i.State())
	}
	if i.client != nil {
		return fmt.Errorf("%w: client is already registered", ErrClientRegistration)
	}

	if name == "" {
		name = i.effect.Name()
	}
	i.name = i.host.UniqueName(name)
	i.logger = i.logger.Named(i.name)

	client, err := i.host.AddClient(i)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClientRegistration, err)
	}
	if client == nil {
		return ErrClientRegistration
	}
	i.client = client

	i.options.Store(uint32(options & i.AvailableOptions()))
	return nil
}

// Reload pushes the engine's rate and block size into the format, runs its
// initialization and rebuilds the port table and parameter model. It
// disables processing for its duration; an active instance is deactivated
// first and activated again afterwards.
func (i *Instance) Reload() error {
	switch i.State() {
	case StateCompiled, StateActivated, StateDeactivated:
	default:
		return fmt.Errorf("%w: reload in state %s", ErrInvalidState, i.State())
	}

	wasEnabled := i.enabled.Swap(false)
	defer i.enabled.Store(wasEnabled)

	wasActive := i.State() == StateActivated
	if wasActive {
		i.Deactivate()
	}

	i.reload()

	if wasActive {
		return i.Activate()
	}
	return nil
}

func (i *Instance) reload() {
	i.master.Lock()
	defer i.master.Unlock()

	rate := i.host.SampleRate()
	blockSize := i.host.BufferSize()

	i.effect.SetSampleRate(rate)
	i.effect.SetBlockSize(blockSize)
	i.effect.Init()

	// only valid after Init
	frames := latencyFrames(i.effect.Latency(), rate)
	i.latency.Store(frames)
	if i.client != nil {
		i.client.SetLatency(frames)
	}

	ins, outs := i.effect.NumInputs(), i.effect.NumOutputs()

	policy := port.NamePolicy{MaxSize: i.host.MaxPortNameSize()}
	if i.host.ProcessMode() == ProcessModeSingleClient {
		policy.Prefix = i.name
	}
	i.ports = port.NewBuilder(policy).
		WithAudioInputs(ins, i.effect.InputName).
		WithAudioOutputs(outs, i.effect.OutputName).
		WithEventInput().
		WithEventOutput().
		Build()

	maxSlots := min(i.effect.MaxSlots(), adapter.MaxSlotCapacity)
	i.params = param.Scan(maxSlots, i.effect.Slot)

	i.hints = hintsFor(ins, outs)

	i.ctx.SampleRate = rate
	i.ctx.Resize(blockSize)
	i.bridge.SetSampleRate(rate)
	i.audioIn = make([][]float32, ins)
	i.audioOut = make([][]float32, outs)
	i.spareOut = make([][]float32, outs)
	for c := range i.spareOut {
		i.spareOut[c] = make([]float32, blockSize)
	}

	i.eventIn.Clear()
	i.eventOut.Clear()
	i.postRT.clear()
	i.reloaded = true

	i.logger.Debug("reloaded: %d ins, %d outs, %d parameters, latency %d", ins, outs, i.params.Count(), frames)
}

// Activate re-initializes the format and resets the transport.
func (i *Instance) Activate() error {
	switch i.State() {
	case StateCompiled, StateDeactivated:
	case StateActivated:
		return nil
	default:
		return fmt.Errorf("%w: activate in state %s", ErrInvalidState, i.State())
	}
	if !i.reloaded {
		return fmt.Errorf("%w: activate before reload", ErrInvalidState)
	}

	i.master.Lock()
	defer i.master.Unlock()

	i.effect.SetSampleRate(i.host.SampleRate())
	i.effect.SetBlockSize(i.host.BufferSize())
	i.effect.Init()
	i.bridge.Reset()

	if i.client != nil {
		i.client.Activate()
	}
	i.setState(StateActivated)
	return nil
}

// Deactivate stops processing. It waits for an in-flight block.
func (i *Instance) Deactivate() {
	if i.State() != StateActivated {
		return
	}

	i.master.Lock()
	defer i.master.Unlock()

	if i.client != nil {
		i.client.Deactivate()
	}
	i.setState(StateDeactivated)
}

// Dispose unregisters the client, deactivates and releases the format
// effect. No other call is valid afterwards.
func (i *Instance) Dispose() {
	if i.State() == StateDisposed {
		return
	}

	i.enabled.Store(false)
	i.Deactivate()

	i.master.Lock()
	defer i.master.Unlock()

	if i.client != nil {
		i.client.Close()
		i.client = nil
	}
	if i.effect != nil {
		if err := i.effect.Close(); err != nil {
			i.logger.Warn("closing effect: %v", err)
		}
	}
	i.setState(StateDisposed)
}

// SetEnabled toggles processing. A disabled instance outputs silence.
func (i *Instance) SetEnabled(enabled bool) {
	i.enabled.Store(enabled)
}

// IsEnabled reports whether processing is enabled.
func (i *Instance) IsEnabled() bool {
	return i.enabled.Load()
}

// SetListener installs the notification listener.
func (i *Instance) SetListener(l Listener) {
	i.listenerMu.Lock()
	defer i.listenerMu.Unlock()
	i.listener = l
}

func (i *Instance) notify(n Notification) {
	i.listenerMu.Lock()
	l := i.listener
	i.listenerMu.Unlock()

	if l != nil {
		l(n)
	}
}

// DrainNotifications delivers notifications queued by the audio thread to
// fn, or to the listener when fn is nil. Control context only.
func (i *Instance) DrainNotifications(fn func(Notification)) int {
	if fn == nil {
		fn = i.notify
	}
	return i.postRT.drain(fn)
}

// DroppedNotifications returns how many RT notifications did not fit.
func (i *Instance) DroppedNotifications() uint64 {
	return i.postRT.dropped.Load()
}

// Faults returns how many blocks were silenced by an adapter panic.
func (i *Instance) Faults() uint64 {
	return i.faults.Load()
}

func latencyFrames(seconds, rate float64) uint32 {
	frames := int64(roundHalfUp(seconds * rate))
	if frames < 0 {
		return 0
	}
	return uint32(frames)
}

func labelFor(file, root string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return filepath.Base(file)
	}
	return filepath.ToSlash(rel)
}
