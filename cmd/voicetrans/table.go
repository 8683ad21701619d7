package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"voicetrans/internal/transcript"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const previewWidth = 32

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderHistoryTable(items []transcript.Item) string {
	headers := []string{"#", "ID", "File", "Chinese", "Vietnamese", "Model"}
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.ID,
			fallback(item.AudioInfo.FileName, "(url)"),
			preview(item.AIResponse.Chinese),
			preview(item.AIResponse.Vietnamese),
			fallback(item.Model, "-"),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

func renderItemDetails(item transcript.Item) string {
	rows := [][]string{
		{"ID", item.ID},
		{"Timestamp", fallback(item.Timestamp, "-")},
		{"Model", fallback(item.Model, "-")},
		{"File", fallback(item.AudioInfo.FileName, "-")},
		{"Size", fallback(item.AudioInfo.FileSizeFormatted, "-")},
		{"MIME", fallback(item.AudioInfo.MimeType, "-")},
		{"URL", fallback(item.AudioInfo.URL, "-")},
		{"Audio attached", yesNo(item.HasAudioFile)},
	}
	if item.AIResponse != nil {
		rows = append(rows,
			[]string{"Chinese", item.AIResponse.Chinese},
			[]string{"Pinyin", item.AIResponse.Pinyin},
			[]string{"Vietnamese", item.AIResponse.Vietnamese},
		)
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

// preview shortens s to previewWidth runes on one line.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= previewWidth {
		return s
	}
	return string(runes[:previewWidth-1]) + "…"
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}
