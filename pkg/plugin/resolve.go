package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolve finds the plugin file and the root it belongs to. An existing
// filename wins and is rooted at the first search path containing it, or
// at its parent directory. Otherwise label is looked up under each search
// path in order.
func resolve(filename, label string, paths []string) (file, root string, err error) {
	if filename == "" && label == "" {
		return "", "", fmt.Errorf("%w: null filename and label", ErrNotFound)
	}

	if filename != "" && isFile(filename) {
		file, err = filepath.Abs(filename)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		for _, p := range paths {
			if isChildOf(file, p) {
				return file, absOrClean(p), nil
			}
		}
		return file, filepath.Dir(file), nil
	}

	if label != "" {
		for _, p := range paths {
			candidate := filepath.Join(p, filepath.FromSlash(label))
			if isFile(candidate) {
				return absOrClean(candidate), absOrClean(p), nil
			}
		}
	}

	ref := filename
	if ref == "" {
		ref = label
	}
	return "", "", fmt.Errorf("%w: %s", ErrNotFound, ref)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func absOrClean(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func isChildOf(file, dir string) bool {
	rel, err := filepath.Rel(absOrClean(dir), file)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
