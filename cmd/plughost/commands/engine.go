package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/justyntemme/plughost/internal/printer"
	"github.com/justyntemme/plughost/pkg/adapter/script"
	"github.com/justyntemme/plughost/pkg/engine"
	"github.com/justyntemme/plughost/pkg/framework/debug"
	"github.com/justyntemme/plughost/pkg/plugin"
)

// loadConfig reads --config, or the defaults, and applies the global
// flags on top.
func loadConfig() (*engine.Config, error) {
	var cfg *engine.Config
	if configPath == "" {
		cfg = engine.DefaultConfig()
	} else {
		var err error
		cfg, err = engine.Load(configPath)
		if err != nil {
			return nil, printer.Error(
				"invalid configuration",
				err.Error(),
				[]string{fmt.Sprintf("Check %s against the documented keys", configPath)},
			)
		}
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if len(searchPaths) > 0 {
		if cfg.Paths == nil {
			cfg.Paths = make(map[string][]string)
		}
		cfg.Paths[formatName] = append(cfg.Paths[formatName], searchPaths...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, printer.Error("invalid configuration", err.Error(), nil)
	}
	return cfg, nil
}

func newLogger(cfg *engine.Config) *debug.Logger {
	logger := debug.New(os.Stderr, "plughost", debug.DefaultFlags)
	logger.SetLevel(cfg.Level())
	return logger
}

// newEngine creates an engine with every built-in format registered.
func newEngine(cfg *engine.Config) (*engine.Engine, error) {
	e := engine.New(cfg, newLogger(cfg))
	if err := e.RegisterFormat(script.NewFormat()); err != nil {
		return nil, err
	}
	return e, nil
}

// initializerFor turns a command line reference into an initializer. An
// existing file is loaded by name, anything else is searched for as a
// label under the search paths.
func initializerFor(ref string) engine.Initializer {
	init := engine.Initializer{Format: formatName}
	if _, err := os.Stat(ref); err == nil {
		init.Filename = ref
	} else {
		init.Label = ref
	}
	return init
}

// addPlugin loads ref into e and reports failures the printer way.
func addPlugin(e *engine.Engine, ref string) (*plugin.Instance, error) {
	inst, err := e.AddPlugin(initializerFor(ref))
	switch {
	case err == nil:
		return inst, nil
	case errors.Is(err, plugin.ErrNotFound):
		return nil, printer.Error(
			fmt.Sprintf("plugin %q not found", ref),
			err.Error(),
			[]string{"Pass the path of the plugin file", "Add its directory with --path"},
		)
	case errors.Is(err, plugin.ErrCompile):
		return nil, printer.Error(fmt.Sprintf("plugin %q failed to compile", ref), err.Error(), nil)
	default:
		return nil, printer.Error(fmt.Sprintf("failed to load plugin %q", ref), err.Error(), nil)
	}
}

// applySettings parses "id=value" pairs and writes them to inst.
func applySettings(inst *plugin.Instance, settings []string) error {
	for _, s := range settings {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("setting %q is not id=value", s)
		}

		id, err := parameterID(inst, key)
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("setting %q: %w", s, err)
		}
		inst.SetValue(id, v, false)
	}
	return nil
}

// parameterID accepts a parameter id or name.
func parameterID(inst *plugin.Instance, key string) (int32, error) {
	if n, err := strconv.Atoi(key); err == nil {
		if _, err := inst.Parameter(int32(n)); err != nil {
			return 0, err
		}
		return int32(n), nil
	}
	for _, p := range inst.Parameters() {
		if strings.EqualFold(p.Name, key) {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: no parameter named %q", plugin.ErrIndexOutOfRange, key)
}
