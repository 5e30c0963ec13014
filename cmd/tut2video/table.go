package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ivlev/tut2video/internal/coverage"
	"github.com/ivlev/tut2video/internal/governance"
	"github.com/ivlev/tut2video/internal/logging"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if logging.IsTerminal(out) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := range header {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func printValidation(out io.Writer, res governance.Result) {
	buckets := []struct {
		name governance.Bucket
		rep  governance.Report
	}{
		{governance.BucketScenes, res.Reports.Scenes},
		{governance.BucketLayout, res.Reports.Layout},
		{governance.BucketMotion, res.Reports.Motion},
		{governance.BucketTiming, res.Reports.Timing},
	}
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		status := "ok"
		if !b.rep.Valid {
			status = "FAIL"
		}
		rows = append(rows, []string{string(b.name), status, fmt.Sprintf("%d", len(b.rep.Errors))})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Bucket", "Status", "Violations"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))

	if len(res.Errors) == 0 {
		return
	}
	rows = rows[:0]
	for _, v := range res.Errors {
		rows = append(rows, []string{string(v.Bucket), v.SceneID, v.Msg})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Bucket", "Scene", "Problem"}, rows, nil))
}

func printCoverage(out io.Writer, rep coverage.Report) {
	rows := make([][]string, 0, len(rep.Outcomes))
	for _, o := range rep.Outcomes {
		target := "step " + o.Goal.StepID
		if o.Goal.ActionID != "" {
			target = "action " + o.Goal.ActionID
		}
		status := "pass"
		if !o.Pass {
			status = "FAIL"
		}
		rows = append(rows, []string{target, fmt.Sprintf("%d/%d", o.Hits, o.Goal.MinHits), status, o.Detail})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Goal", "Hits", "Status", "Detail"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
}
