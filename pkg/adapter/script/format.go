// Package script implements the adapter contract for JSFX-style scripted
// DSP units. Scripts are parsed for their header, sliders and sections;
// the DSP itself is a pass-through.
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/justyntemme/plughost/pkg/adapter"
)

// FormatName is the registry key of the script format.
const FormatName = "jsfx"

// Format loads and compiles script effects.
type Format struct{}

// NewFormat creates the script format.
func NewFormat() *Format {
	return &Format{}
}

func (f *Format) Name() string         { return FormatName }
func (f *Format) Extensions() []string { return []string{".jsfx"} }

// Load parses the script at path. Malformed content is reported by Compile.
func (f *Format) Load(path, root string) (adapter.Effect, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", adapter.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	s, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if s.Desc == "" {
		s.Desc = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return newEffect(path, root, s), nil
}

// Compile checks the parsed script and resolves its imports against the
// script directory and then the import root.
func (f *Format) Compile(e adapter.Effect, flags adapter.CompileFlags) error {
	eff, ok := e.(*Effect)
	if !ok {
		return adapter.ErrWrongEffect
	}

	problems := append([]string(nil), eff.script.Problems...)

	for _, imp := range eff.script.Imports {
		if resolveImport(imp, filepath.Dir(eff.path), eff.root) == "" {
			problems = append(problems, fmt.Sprintf("import %s not found", imp))
		}
	}

	if flags&adapter.CompileNoGfx != 0 {
		delete(eff.script.Sections, SectionGfx)
	}
	if flags&adapter.CompileNoSerialize != 0 {
		delete(eff.script.Sections, SectionSerialize)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", adapter.ErrCompile, strings.Join(problems, "; "))
	}

	eff.compiled = true
	eff.flags = flags
	return nil
}

func resolveImport(name string, dirs ...string) string {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name
		}
		return ""
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
