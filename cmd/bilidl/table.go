package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bilidl/internal/bilibili"
	"bilidl/internal/pipeline"
	"bilidl/internal/services"
)

type column struct {
	title    string
	align    text.Align
	maxWidth int
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func renderPagesTable(pages []bilibili.SubPage) string {
	columns := []column{
		{title: "#", align: text.AlignRight},
		{title: "Title", align: text.AlignLeft, maxWidth: 48},
		{title: "Source", align: text.AlignLeft},
	}
	rows := make([][]string, 0, len(pages))
	for _, page := range pages {
		rows = append(rows, []string{strconv.Itoa(page.Index), page.Title, page.SourceURL})
	}
	return renderTable(columns, rows)
}

func renderSummaryTable(summary pipeline.Summary) string {
	columns := []column{
		{title: "#", align: text.AlignRight},
		{title: "Title", align: text.AlignLeft, maxWidth: 40},
		{title: "Video", align: text.AlignRight},
		{title: "Audio", align: text.AlignRight},
		{title: "Status", align: text.AlignLeft},
		{title: "Error", align: text.AlignLeft, maxWidth: 48},
	}
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, []string{
			strconv.Itoa(r.Page.Index),
			filepath.Base(r.VideoPath),
			sizeCell(r.VideoPath),
			sizeCell(r.AudioPath),
			r.Status(),
			errorCell(r.Err),
		})
	}
	return renderTable(columns, rows)
}

func renderSummaryLine(summary pipeline.Summary, colorize bool) string {
	kind := statusDone
	if summary.Failed() > 0 {
		kind = statusWarn
	}
	message := fmt.Sprintf("%d parts, %d downloaded, %d encoded, %d failed in %s",
		len(summary.Results), summary.Downloaded(), summary.Transcoded(), summary.Failed(),
		summary.Duration.Round(time.Second))
	return renderStatusLine("Run "+shortID(summary.RunID), kind, message, colorize)
}

func sizeCell(path string) string {
	size, ok := statSize(path)
	if !ok {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func errorCell(err error) string {
	if err == nil {
		return ""
	}
	return services.Kind(err) + ": " + err.Error()
}

func statSize(path string) (int64, bool) {
	if path == "" {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
