// Package journal keeps an optional SQLite history of conversion runs.
//
// Each run gets one row in runs and one row per job in outcomes. The store
// satisfies conversion.Recorder; write failures surface to the caller, which
// logs them without failing the run.
package journal
