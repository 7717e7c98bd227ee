package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"bilidl/internal/bilibili"
	"bilidl/internal/download"
	"bilidl/internal/pipeline"
)

// progressUI renders per-page status lines and, on a terminal, a transfer bar.
type progressUI struct {
	w           io.Writer
	interactive bool
	total       int
	bar         *progressbar.ProgressBar
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w, interactive: shouldColorize(w)}
}

func (u *progressUI) hooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnResolved: func(pages []bilibili.SubPage) {
			u.total = len(pages)
		},
		OnPageStart: func(page bilibili.SubPage) {
			fmt.Fprintln(u.w, renderStatusLine(u.pageLabel(page), statusActive, page.Title, u.interactive))
		},
		OnProgress: u.onProgress,
		OnPageDone: u.onPageDone,
	}
}

func (u *progressUI) pageLabel(page bilibili.SubPage) string {
	if u.total > 0 {
		return fmt.Sprintf("Part %d/%d", page.Index, u.total)
	}
	return fmt.Sprintf("Part %d", page.Index)
}

func (u *progressUI) onProgress(page bilibili.SubPage, p download.Progress) {
	if !u.interactive {
		return
	}
	if u.bar == nil {
		limit := p.Total
		if limit <= 0 {
			limit = -1
		}
		u.bar = progressbar.NewOptions64(limit,
			progressbar.OptionSetWriter(u.w),
			progressbar.OptionSetDescription(fmt.Sprintf("  p%d", page.Index)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = u.bar.Set64(p.Written)
}

func (u *progressUI) onPageDone(result pipeline.Result) {
	u.finish()
	kind := statusDone
	message := describeResult(result)
	if result.Err != nil {
		kind = statusFailed
	} else if result.Status() == "skipped" {
		kind = statusSkipped
	}
	fmt.Fprintln(u.w, renderStatusLine(u.pageLabel(result.Page), kind, message, u.interactive))
}

func (u *progressUI) finish() {
	if u.bar == nil {
		return
	}
	_ = u.bar.Finish()
	u.bar = nil
}

func describeResult(result pipeline.Result) string {
	if result.Err != nil {
		return result.Err.Error()
	}
	var parts []string
	if result.Downloaded {
		parts = append(parts, "downloaded "+fileSize(result.VideoPath))
	}
	if result.Transcoded {
		parts = append(parts, "encoded "+fileSize(result.AudioPath))
	}
	if len(parts) == 0 {
		return "already complete"
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + ", " + parts[1]
}

func fileSize(path string) string {
	size, ok := statSize(path)
	if !ok {
		return "?"
	}
	return humanize.IBytes(uint64(size))
}
