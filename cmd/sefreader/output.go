package main

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dgallion1/sefreader/internal/doctree"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

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

// renderOutline draws the chapter tree. Missing chapters are marked.
func renderOutline(tree *doctree.DocTree) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)

	cur := 0
	tree.Walk(func(n *doctree.DocNode, depth int, _ []string) {
		for ; cur < depth; cur++ {
			lw.Indent()
		}
		for ; cur > depth; cur-- {
			lw.UnIndent()
		}
		label := n.Title
		if n.Placeholder {
			label += " (missing)"
		}
		lw.AppendItem(label)
	})
	return lw.Render()
}

func indentTitle(title string, level int) string {
	return strings.Repeat("  ", level) + title
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
