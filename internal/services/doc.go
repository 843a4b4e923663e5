// Package services holds the plumbing shared by the encoder integrations.
//
//   - Context helpers that stamp the run id, job position and source path for
//     logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     stage and operation that produced them.
//
// The ffmpeg and drapto subpackages implement the encoder engines.
package services
