package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds the formats known to an engine.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// Register adds a format. Registering a name twice is an error.
func (r *Registry) Register(f Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(f.Name())
	if _, exists := r.formats[name]; exists {
		return fmt.Errorf("format %q already registered", name)
	}
	r.formats[name] = f
	return nil
}

// Get returns the format registered under name.
func (r *Registry) Get(name string) (Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formats[strings.ToLower(name)]
	return f, ok
}

// Names returns the registered format names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan lists files under the search paths that carry one of the format's
// extensions. Unreadable directories are skipped.
func Scan(f Format, paths []string) []string {
	var found []string
	seen := make(map[string]bool)

	for _, root := range paths {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || seen[path] {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			for _, want := range f.Extensions() {
				if ext == want {
					seen[path] = true
					found = append(found, path)
					break
				}
			}
			return nil
		})
	}
	return found
}
