// Package conversion turns matched source files into converted targets.
//
// A Job pairs a source with its target path (same directory and stem, new
// extension). The Invoker runs one job through an Encoder engine either
// blocking (Convert) or as a Pending future with a progress channel (Start),
// deleting the source once the encoder exits cleanly. The Runner walks the
// tree, filters it, and feeds every job through the Invoker with bounded
// concurrency, logging and recording each Outcome.
package conversion
