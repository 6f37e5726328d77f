package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// Defaults applied by Validate.
const (
	DefaultSampleRate      = 48000.0
	DefaultBufferSize      = 512
	DefaultChannels        = 2
	DefaultMaxPortNameSize = 255
	DefaultMaxPlugins      = 64
	MaxBufferSize          = 8192
)

// Config holds the engine settings, usually loaded from plughost.yml.
type Config struct {
	SampleRate      float64             `yaml:"sample_rate"`
	BufferSize      int                 `yaml:"buffer_size"`
	Channels        int                 `yaml:"channels,omitempty"`
	ProcessMode     string              `yaml:"process_mode,omitempty"` // single-client, multiple-clients or rack
	MaxPortNameSize int                 `yaml:"max_port_name_size,omitempty"`
	MaxPlugins      int                 `yaml:"max_plugins,omitempty"`
	Paths           map[string][]string `yaml:"paths,omitempty"` // format name -> search paths
	LogLevel        string              `yaml:"log_level,omitempty"`
	PresetDB        string              `yaml:"preset_db,omitempty"`
	Plugins         []PluginConfig      `yaml:"plugins,omitempty"`

	mode  plugin.ProcessMode
	level debug.LogLevel
}

// PluginConfig describes a plugin to load at startup.
type PluginConfig struct {
	Format      string   `yaml:"format"`
	Filename    string   `yaml:"filename,omitempty"`
	Label       string   `yaml:"label,omitempty"`
	Name        string   `yaml:"name,omitempty"`
	Options     []string `yaml:"options,omitempty"`
	CtrlChannel *int     `yaml:"ctrl_channel,omitempty"`
}

// DefaultConfig returns a validated configuration with every default set.
func DefaultConfig() *Config {
	c := &Config{}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate applies defaults and checks every field.
func (c *Config) Validate() error {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.SampleRate < 0 {
		return fmt.Errorf("sample_rate must be positive, got %v", c.SampleRate)
	}

	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.BufferSize < 0 || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("buffer_size must be between 1 and %d, got %d", MaxBufferSize, c.BufferSize)
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.Channels < 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}

	switch c.ProcessMode {
	case "", "rack":
		c.ProcessMode = "rack"
		c.mode = plugin.ProcessModeContinuousRack
	case "single-client":
		c.mode = plugin.ProcessModeSingleClient
	case "multiple-clients":
		c.mode = plugin.ProcessModeMultipleClients
	default:
		return fmt.Errorf("invalid process_mode '%s': must be 'single-client', 'multiple-clients' or 'rack'", c.ProcessMode)
	}

	if c.MaxPortNameSize == 0 {
		c.MaxPortNameSize = DefaultMaxPortNameSize
	}
	if c.MaxPortNameSize < 0 {
		return fmt.Errorf("max_port_name_size must be positive, got %d", c.MaxPortNameSize)
	}

	if c.MaxPlugins == 0 {
		c.MaxPlugins = DefaultMaxPlugins
	}
	if c.MaxPlugins < 0 {
		return fmt.Errorf("max_plugins must be positive, got %d", c.MaxPlugins)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	level, err := debug.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	c.level = level

	for i, p := range c.Plugins {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("plugins[%d]: %w", i, err)
		}
	}

	return nil
}

// Mode returns the parsed process mode.
func (c *Config) Mode() plugin.ProcessMode {
	return c.mode
}

// Level returns the parsed log level.
func (c *Config) Level() debug.LogLevel {
	return c.level
}

// Validate checks a startup plugin entry.
func (p *PluginConfig) Validate() error {
	if p.Format == "" {
		return fmt.Errorf("format is required")
	}
	if p.Filename == "" && p.Label == "" {
		return fmt.Errorf("filename or label is required")
	}
	if _, ok := plugin.ParseOptions(p.Options); !ok {
		return fmt.Errorf("unknown option in %v", p.Options)
	}
	if p.CtrlChannel != nil && (*p.CtrlChannel < -1 || *p.CtrlChannel > 15) {
		return fmt.Errorf("ctrl_channel must be between -1 and 15, got %d", *p.CtrlChannel)
	}
	return nil
}

// Initializer converts the entry to an engine initializer.
func (p *PluginConfig) Initializer() Initializer {
	options, _ := plugin.ParseOptions(p.Options)
	init := Initializer{
		Format:   p.Format,
		Filename: p.Filename,
		Label:    p.Label,
		Name:     p.Name,
		Options:  options,
	}
	if p.CtrlChannel != nil {
		ch := int8(*p.CtrlChannel)
		init.CtrlChannel = &ch
	}
	return init
}
