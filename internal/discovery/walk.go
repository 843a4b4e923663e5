package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediaconv/internal/services"
)

// WalkOptions controls which entries Walk prunes.
type WalkOptions struct {
	// Exclude lists substrings; any entry whose absolute path contains one is
	// skipped, and matching directories are not descended into.
	Exclude []string
	// IncludeHidden keeps entries whose name starts with ".".
	IncludeHidden bool
}

// Walk returns the absolute path of every regular file under root. An
// unreadable root or subdirectory aborts the walk.
func Walk(root string, opts WalkOptions) ([]string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "discovery", "resolve root", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "discovery", "stat root", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "discovery", "stat root", fmt.Sprintf("%s is not a directory", abs), nil)
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == abs {
			return nil
		}
		if skip(path, d.Name(), opts) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "discovery", "walk", abs, err)
	}
	return files, nil
}

func skip(path, name string, opts WalkOptions) bool {
	if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range opts.Exclude {
		if pattern != "" && strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
