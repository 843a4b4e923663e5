// Package ffmpeg drives the ffmpeg binary as an encoder engine.
//
// CLI builds the command line for one source/target pair, streams the
// machine-readable "-progress pipe:1" report into ProgressUpdate values, logs
// stderr at verbose level and attaches the last stderr lines to failures.
package ffmpeg
