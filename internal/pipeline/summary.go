package pipeline

import (
	"time"

	"bilidl/internal/bilibili"
)

// Result records what happened to one sub-page.
type Result struct {
	Page       bilibili.SubPage
	VideoPath  string
	AudioPath  string
	Downloaded bool
	Transcoded bool
	Err        error
}

// Status is a one-word outcome for tables and logs.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return "failed"
	case r.Downloaded || r.Transcoded:
		return "done"
	default:
		return "skipped"
	}
}

// Summary collects the results of one run.
type Summary struct {
	RunID    string
	URL      string
	Results  []Result
	Duration time.Duration
}

// Failed counts sub-pages that ended with an error.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Downloaded counts sub-pages whose media was transferred in this run.
func (s Summary) Downloaded() int {
	n := 0
	for _, r := range s.Results {
		if r.Downloaded {
			n++
		}
	}
	return n
}

// Transcoded counts sub-pages encoded in this run.
func (s Summary) Transcoded() int {
	n := 0
	for _, r := range s.Results {
		if r.Transcoded {
			n++
		}
	}
	return n
}
