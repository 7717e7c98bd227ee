// Package services defines shared utilities consumed by the download pipeline
// and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run correlation IDs, stage names, and sub-page
//     indices for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a fatal
//     input error from a per-page failure with errors.Is.
//
// Use these helpers when wiring new components so error classification and
// observability stay uniform across the pipeline.
package services
