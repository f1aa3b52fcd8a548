// Package checkpoint discovers model weight files on disk so the setup phase
// can be pointed at one without hand-writing paths.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modelkit/internal/common/fsutil"
)

// Checkpoint is one discovered weights file.
type Checkpoint struct {
	// ID is the filename including extension.
	ID string
	// Path is the absolute file path.
	Path string
	// SizeBytes is the file size.
	SizeBytes int64
}

// weight file extensions recognized by ScanDir
var exts = map[string]bool{
	".onnx": true,
	".pt":   true,
	".pb":   true,
	".h5":   true,
	".npz":  true,
	".ckpt": true,
}

// ScanDir scans a directory for checkpoint files and builds a list from
// filenames, sorted by the directory's own ordering (lexicographic).
func ScanDir(dir string) ([]Checkpoint, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []Checkpoint
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !exts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		out = append(out, Checkpoint{ID: name, Path: filepath.Join(abs, name), SizeBytes: info.Size()})
	}
	return out, nil
}

// Resolve picks the checkpoint path for setup: an explicit path wins, else the
// first file scanned from dir. Both empty is fine (the backend may ship its
// own weights); an explicit path that does not exist is an error.
func Resolve(explicit, dir string) (string, error) {
	if explicit != "" {
		path, err := fsutil.ExpandHome(explicit)
		if err != nil {
			return "", err
		}
		if !fsutil.PathExists(path) {
			return "", fmt.Errorf("checkpoint not found: %s", path)
		}
		return path, nil
	}
	if dir == "" {
		return "", nil
	}
	cps, err := ScanDir(dir)
	if err != nil {
		return "", err
	}
	if len(cps) == 0 {
		return "", fmt.Errorf("no checkpoint files in %s", dir)
	}
	return cps[0].Path, nil
}
