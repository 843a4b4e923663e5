package conversion

import (
	"path/filepath"
	"strings"
)

// Job is one source-to-target conversion.
type Job struct {
	Source    string
	Target    string
	TargetExt string
	// Index is 1-based within the run; Total is the run's job count.
	Index int
	Total int
}

// TargetPath returns source with its extension replaced by ext.
func TargetPath(source, ext string) string {
	dir, base := filepath.Split(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(dir, stem+ext)
}

// NewJobs builds numbered jobs for the given sources.
func NewJobs(sources []string, ext string) []Job {
	jobs := make([]Job, 0, len(sources))
	for i, source := range sources {
		jobs = append(jobs, Job{
			Source:    source,
			Target:    TargetPath(source, ext),
			TargetExt: ext,
			Index:     i + 1,
			Total:     len(sources),
		})
	}
	return jobs
}
