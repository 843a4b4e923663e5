// Package preflight checks the directories and binaries a run depends on
// before any file is touched.
package preflight
