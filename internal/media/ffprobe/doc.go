// Package ffprobe decodes ffprobe JSON output into a typed Result.
//
// The caller runs ffprobe (Args builds the argument list) and hands the
// captured stdout to Parse, so the package itself never spawns processes.
package ffprobe
