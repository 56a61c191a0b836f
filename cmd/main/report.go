package main

import (
	"fmt"
	"io"

	"taxonomy/scraper/internal/domain"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderReport(w io.Writer, report *domain.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s %s", report.Site, report.Version))
	t.AppendHeader(table.Row{"#", "Category", "Status", "Groups", "Options", "Error"})

	for i, r := range report.Results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		t.AppendRow(table.Row{i + 1, r.Category.Name, r.Status, r.Groups, r.Options, errText})
	}

	tally := report.Tally()
	footer := tally.String()
	if report.Stopped {
		footer += " (stopped)"
	}
	t.AppendFooter(table.Row{"", footer})

	// The tally is printed verbatim, not upper-cased like the default footer.
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	t.Render()
}
