// Package ffprobe wraps the ffprobe JSON report. Conversion uses it to learn a
// source's duration so encoder progress can be expressed as a percentage.
package ffprobe
