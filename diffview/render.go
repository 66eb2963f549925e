/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package diffview

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Render writes a human-readable form of the diff. Context lines are
// indented, additions and removals carry +/- markers, and separators show how
// many unchanged lines were elided. An all-context diff renders as a
// "no changes" notice.
func Render(w io.Writer, lines []Line) error {
	if !HasChanges(lines) {
		_, err := fmt.Fprintln(w, "(no changes)")
		return err
	}

	for _, l := range lines {
		var err error
		switch l.Kind {
		case Add:
			_, err = fmt.Fprintf(w, "+ %s\n", l.Text)
		case Remove:
			_, err = fmt.Fprintf(w, "- %s\n", l.Text)
		case Separator:
			_, err = fmt.Fprintf(w, "  ... %d unchanged lines ...\n", l.Elided)
		default:
			_, err = fmt.Fprintf(w, "  %s\n", l.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Stat counts the added and removed lines in a diff.
func Stat(lines []Line) (added, removed int) {
	for _, l := range lines {
		switch l.Kind {
		case Add:
			added++
		case Remove:
			removed++
		}
	}
	return added, removed
}

// SummaryRow is one row of a change summary table.
type SummaryRow struct {
	Path      string
	Operation string
	Added     int
	Removed   int
}

// WriteSummary renders a markdown-style table of per-file change statistics.
func WriteSummary(w io.Writer, rows []SummaryRow) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Behavior: tw.Behavior{TrimSpace: tw.Off},
		}),
		tablewriter.WithHeader([]string{"File", "Operation", "+", "-"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Top: tw.Off, Right: tw.On, Bottom: tw.Off},
		}),
	)

	for _, r := range rows {
		if err := table.Append([]string{
			r.Path,
			r.Operation,
			fmt.Sprintf("%d", r.Added),
			fmt.Sprintf("%d", r.Removed),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}
