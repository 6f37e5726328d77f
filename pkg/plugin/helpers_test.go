package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plughost/pkg/adapter/adaptertest"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/framework/param"
)

const (
	testRate  = 48000.0
	testBlock = 64
)

type fakeClient struct {
	mu      sync.Mutex
	active  bool
	latency uint32
	closed  bool
}

func (c *fakeClient) Activate()   { c.mu.Lock(); c.active = true; c.mu.Unlock() }
func (c *fakeClient) Deactivate() { c.mu.Lock(); c.active = false; c.mu.Unlock() }
func (c *fakeClient) Close()      { c.mu.Lock(); c.closed = true; c.mu.Unlock() }

func (c *fakeClient) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *fakeClient) SetLatency(frames uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = frames
}

type fakeHost struct {
	rate    float64
	block   int
	mode    ProcessMode
	maxName int
	paths   []string
	refuse  bool

	names   map[string]int
	clients []*fakeClient
}

func newFakeHost(paths ...string) *fakeHost {
	return &fakeHost{
		rate:    testRate,
		block:   testBlock,
		mode:    ProcessModeMultipleClients,
		maxName: 255,
		paths:   paths,
		names:   make(map[string]int),
	}
}

func (h *fakeHost) SampleRate() float64         { return h.rate }
func (h *fakeHost) BufferSize() int             { return h.block }
func (h *fakeHost) ProcessMode() ProcessMode    { return h.mode }
func (h *fakeHost) MaxPortNameSize() int        { return h.maxName }
func (h *fakeHost) SearchPaths(string) []string { return h.paths }

func (h *fakeHost) UniqueName(name string) string {
	h.names[name]++
	if n := h.names[name]; n > 1 {
		return name + " (" + strconv.Itoa(n) + ")"
	}
	return name
}

func (h *fakeHost) AddClient(*Instance) (Client, error) {
	if h.refuse {
		return nil, errors.New("engine is closed")
	}
	c := &fakeClient{}
	h.clients = append(h.clients, c)
	return c, nil
}

func stereoConfig() adaptertest.Config {
	return adaptertest.Config{
		Name:        "Test FX",
		Author:      "plughost",
		Category:    "delay",
		InputNames:  []string{"", ""},
		OutputNames: []string{"", ""},
		MaxSlots:    3,
		Slots: []param.Slot{
			{RIndex: 0, Name: "Gain", Min: 0, Max: 1, Def: 0.5, Step: 0.01},
			{RIndex: 2, Name: "Mode", Min: 0, Max: 2, Def: 0, Step: 1, Enum: true, EnumCount: 3},
		},
		EnumNames:      map[int][]string{2: {"Off", "Low", "High"}},
		LatencySeconds: 0.001,
		Programs:       []string{"Init", "Bright"},
	}
}

func writePluginFile(t *testing.T, dir, rel string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))
	return path
}

type fixture struct {
	host   *fakeHost
	format *adaptertest.Format
	inst   *Instance
	effect *adaptertest.Effect
}

// openFixture opens an activated, enabled instance of cfg.
func openFixture(t *testing.T, cfg adaptertest.Config) *fixture {
	t.Helper()

	dir := t.TempDir()
	path := writePluginFile(t, dir, "fx.test")

	host := newFakeHost(dir)
	format := adaptertest.NewFormat(cfg)

	inst, err := Open(host, format, Initializer{
		Filename: path,
		Options:  DefaultOptions | OptionMapProgramChanges,
	}, debug.Discard())
	require.NoError(t, err)
	t.Cleanup(inst.Dispose)

	require.NoError(t, inst.Activate())
	inst.SetEnabled(true)

	effect, _ := format.Last()
	return &fixture{host: host, format: format, inst: inst, effect: effect}
}

func buffers(channels, frames int, value float32) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
		for i := range out[c] {
			out[c][i] = value
		}
	}
	return out
}

func collect(inst *Instance) []Notification {
	var got []Notification
	inst.DrainNotifications(func(n Notification) {
		got = append(got, n)
	})
	return got
}

func kinds(ns []Notification, kind NotificationKind) []Notification {
	var out []Notification
	for _, n := range ns {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
