package preflight

import (
	"fmt"
	"strings"

	"mediaconv/internal/config"
	"mediaconv/internal/deps"
	"mediaconv/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Media root", cfg.Paths.RootDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// Verify runs every check a conversion depends on and returns an error
// naming each failure. Optional dependencies never fail verification.
func Verify(cfg *config.Config) error {
	var problems []string
	for _, result := range RunAll(cfg) {
		if !result.Passed {
			problems = append(problems, result.Name+": "+result.Detail)
		}
	}
	for _, status := range deps.Missing(CheckSystemDeps(cfg)) {
		problems = append(problems, fmt.Sprintf("%s: %s", status.Name, status.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "verify", strings.Join(problems, "; "), nil)
}
