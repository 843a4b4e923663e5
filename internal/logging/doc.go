// Package logging assembles the slog loggers used by mediaconv.
//
// A run writes every record at the configured level to combined.log, errors
// to error.log, and mirrors records to the console outside production. The
// console handler renders a one-line header ("ts LEVEL [component] Job i/n –
// message") followed by indented fields; file sinks default to JSON.
//
// Context helpers tag records with the run id, job position and source path
// carried by internal/services context values.
package logging
