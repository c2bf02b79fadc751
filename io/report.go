package io

import (
	"bufio"
	"fmt"
	"io"
)

// ReportRow is one reported node or link's label paired with its
// current per-species concentration vector, the unit the text report
// writer works in.
type ReportRow struct {
	Label string
	C     []float64
}

// defaultReportPrecision is used for any species whose configured
// ReportPrecision is zero (the zero value, not an explicit "zero
// digits" request).
const defaultReportPrecision = 6

// WriteTextReport renders a human-readable table of reporting
// instants, an optional plain-text companion to the binary results
// stream. precision gives each species' significant-digit count,
// parallel to speciesNames; a zero entry falls back to
// defaultReportPrecision.
func WriteTextReport(w io.Writer, speciesNames []string, precision []int, t float64, nodes, links []ReportRow) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	formats := make([]string, len(speciesNames))
	for i := range formats {
		p := defaultReportPrecision
		if i < len(precision) && precision[i] > 0 {
			p = precision[i]
		}
		formats[i] = fmt.Sprintf("%%14.%dg", p)
	}

	if _, err := fmt.Fprintf(bw, "Time %.2f\n", t); err != nil {
		return err
	}
	if err := writeRows(bw, "Node", speciesNames, formats, nodes); err != nil {
		return err
	}
	if err := writeRows(bw, "Link", speciesNames, formats, links); err != nil {
		return err
	}
	return nil
}

func writeRows(bw *bufio.Writer, label string, speciesNames []string, formats []string, rows []ReportRow) error {
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintf(bw, "%-16s", label)
	for _, name := range speciesNames {
		fmt.Fprintf(bw, "%14s", name)
	}
	fmt.Fprintln(bw)
	for _, row := range rows {
		fmt.Fprintf(bw, "%-16s", row.Label)
		for i, v := range row.C {
			format := "%14.6g"
			if i < len(formats) {
				format = formats[i]
			}
			fmt.Fprintf(bw, format, v)
		}
		fmt.Fprintln(bw)
	}
	return nil
}
