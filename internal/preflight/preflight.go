package preflight

import (
	"bilidl/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks every output directory named by cfg. The audio directory is
// only checked when it differs from the video directory.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("Video directory", cfg.Paths.VideoDir)}
	if audio := cfg.AudioDirFor(cfg.Paths.VideoDir); audio != cfg.Paths.VideoDir {
		results = append(results, CheckDirectoryAccess("Audio directory", audio))
	}
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
