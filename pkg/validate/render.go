package validate

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// WriteHeadline prints the one-line verdict of a report
func WriteHeadline(w io.Writer, r Report) {
	warns, errs, panics := r.Counts()
	verdict := passColor.Sprint("PASS")
	if r.HasErrorFail() {
		verdict = failColor.Sprint("FAIL")
	}
	fmt.Fprintf(w, "validate: %s (%d error(s), %d warning(s), %d panic(s))\n", verdict, errs, warns, panics)
}

// WriteIssues prints the issues of a report, one per row
func WriteIssues(w io.Writer, r Report) error {
	if len(r.Items) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tGROUP\tSINK\tMESSAGE")
	for _, it := range r.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Severity, it.Group, dash(it.Sink), it.Msg)
	}
	return tw.Flush()
}

// WriteTables prints one row per sink with its expectation and, when stats
// are given, the observed lines and share. verbose adds kind, format and
// target path columns.
func WriteTables(w io.Writer, groups []Group, stats *Stats, inputOverride *uint64, verbose bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"GROUP", "SINK", "CONNECT", "EXPECT", "LINES", "ACTUAL"}
	if verbose {
		header = append(header, "KIND", "FMT", "PATH")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, g := range groups {
		total := stats.GroupTotal(g.Name)
		if inputOverride != nil {
			total = *inputOverride
		}
		for _, s := range g.Sinks {
			lines, actual := "-", "-"
			if st, ok := stats.Lookup(g.Name, s.Name); ok && st.Found {
				lines = humanize.Comma(int64(st.Lines))
				if total > 0 {
					actual = fmt.Sprintf("%.2f%%", 100*float64(st.Lines)/float64(total))
				}
			}
			row := []string{g.Name, s.Name, s.Connect, FormatExpect(s.Expect), lines, actual}
			if verbose {
				kind, format, path := "-", "-", "-"
				if s.Spec != nil {
					kind, format = s.Spec.Kind, string(s.Spec.Format)
				}
				if st, ok := stats.Lookup(g.Name, s.Name); ok && st.Path != "" {
					path = st.Path
				}
				row = append(row, kind, format, path)
			}
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
	}
	if stats != nil {
		fmt.Fprintf(tw, "TOTAL\t\t\t\t%s\t\n", humanize.Comma(int64(stats.Total)))
	}
	return tw.Flush()
}

// WriteJSON prints the report as indented JSON
func WriteJSON(w io.Writer, r Report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// FormatExpect renders an expectation compactly, e.g. "ratio=0.5±0.01 min=0.4"
func FormatExpect(e *Expect) string {
	if e == nil {
		return "-"
	}
	var parts []string
	if e.Ratio != nil {
		parts = append(parts, fmt.Sprintf("ratio=%g±%g", *e.Ratio, e.Tolerance()))
	}
	if e.Min != nil {
		parts = append(parts, fmt.Sprintf("min=%g", *e.Min))
	}
	if e.Max != nil {
		parts = append(parts, fmt.Sprintf("max=%g", *e.Max))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
