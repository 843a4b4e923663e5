package discovery

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the paths whose file name ends with suffix, in input order.
func Filter(paths []string, suffix string) []string {
	var out []string
	for _, path := range paths {
		if strings.HasSuffix(filepath.Base(path), suffix) {
			out = append(out, path)
		}
	}
	return out
}

// FilterFold is Filter with Unicode case folding, so "CLIP.AVI" matches ".avi".
func FilterFold(paths []string, suffix string) []string {
	fold := cases.Fold()
	want := fold.String(suffix)
	var out []string
	for _, path := range paths {
		if strings.HasSuffix(fold.String(filepath.Base(path)), want) {
			out = append(out, path)
		}
	}
	return out
}
