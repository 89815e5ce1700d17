package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/sweepbench/internal/result"
)

// gap marks an x value a series has no point for, usually a timeout.
const gap = "-"

// CheckFormat reports whether Generate understands format.
func CheckFormat(format string) error {
	switch format {
	case "table", "markdown", "json", "":
		return nil
	}
	return fmt.Errorf("unknown report format %q", format)
}

// Generate writes the sweep result as a matrix with one row per series and
// one column per x value.
func Generate(res *result.SweepResult, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(res, w)
	case "json":
		return writeJSON(res, w)
	case "table", "":
		return writeTable(res, w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Matrix returns the x labels and, per series, the y value at each label.
func Matrix(res *result.SweepResult) ([]string, [][]string) {
	labels := res.XLabels()
	rows := make([][]string, len(res.Series))
	for i, s := range res.Series {
		byX := make(map[string]string, len(s.Points))
		for _, p := range s.Points {
			byX[p.X] = p.Y
		}
		row := make([]string, len(labels))
		for j, l := range labels {
			if y, ok := byX[l]; ok {
				row[j] = y
			} else {
				row[j] = gap
			}
		}
		rows[i] = row
	}
	return labels, rows
}

func header(res *result.SweepResult) string {
	if res.XLabel == "" {
		return "SERIES"
	}
	return "SERIES \\ " + strings.ToUpper(res.XLabel)
}

func writeTable(res *result.SweepResult, w io.Writer) error {
	if len(res.Series) == 0 {
		_, err := fmt.Fprintln(w, "no series with two or more points")
		return err
	}
	labels, rows := Matrix(res)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", header(res), strings.Join(labels, "\t"))
	fmt.Fprintln(tw, strings.Repeat("-", 16+10*len(labels)))
	for i, s := range res.Series {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, strings.Join(rows[i], "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(res *result.SweepResult, w io.Writer) error {
	labels, rows := Matrix(res)
	if res.Title != "" {
		fmt.Fprintf(w, "### %s\n\n", res.Title)
	}
	fmt.Fprintf(w, "| Series | %s |\n", strings.Join(labels, " | "))
	fmt.Fprintf(w, "|---|%s\n", strings.Repeat("---|", len(labels)))
	for i, s := range res.Series {
		fmt.Fprintf(w, "| %s | %s |\n", s.Name, strings.Join(rows[i], " | "))
	}
	return nil
}

func writeJSON(res *result.SweepResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
