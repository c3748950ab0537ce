package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/ajitpratap0/warpconf/internal/project"
	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/connector"
	"github.com/ajitpratap0/warpconf/pkg/lint"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// initLogger applies --log-level when given, else the engine config's log
// section, else the logger defaults.
func initLogger(fs afero.Fs, workRoot, level string, explicit bool) error {
	cfg := logger.DefaultConfig()
	cfg.Level = level
	if !explicit {
		if eng, err := config.LoadEngine(fs, workRoot); err == nil {
			cfg.Level = eng.Log.Level
			cfg.Encoding = eng.Log.Format
		}
	}
	return logger.Init(cfg)
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writePaths(w io.Writer, p project.Paths) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "work root\t%s\n", p.WorkRoot)
	fmt.Fprintf(tw, "engine conf\t%s\n", p.EngineConf)
	fmt.Fprintf(tw, "wpgen conf\t%s\n", p.WpGenConf)
	fmt.Fprintf(tw, "sink defs\t%s\n", p.SinkDefs)
	fmt.Fprintf(tw, "source defs\t%s\n", p.SourceDefs)
	fmt.Fprintf(tw, "sinks\t%s\n", p.Sinks)
	fmt.Fprintf(tw, "sources\t%s\n", p.Sources)
	fmt.Fprintf(tw, "models\t%s\n", p.Models)
	return tw.Flush()
}

func writeLintRows(w io.Writer, rows []lint.Row) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCOPE\tID\tFILE\tSEV\tMSG")
	var errs, warns int
	for _, r := range rows {
		switch r.Sev {
		case lint.SeverityError:
			errs++
		case lint.SeverityWarn:
			warns++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Scope, dash(r.ID), r.File, r.Sev, r.Msg)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return summary(w, "lint", len(rows), errs, warns)
}

func writeConnectors(w io.Writer, workRoot string, recs []connector.Record) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCOPE\tID\tKIND\tALLOW_OVERRIDE\tFILE")
	for _, r := range recs {
		file := r.Origin
		if rel, err := filepath.Rel(workRoot, r.Origin); err == nil {
			file = rel
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Scope, r.ID, dash(r.Kind), dash(r.AllowList()), file)
	}
	return tw.Flush()
}

func writeConnectorChecks(w io.Writer, checks []project.ConnectorCheck) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCOPE\tID\tKIND\tRESULT")
	var failed int
	for _, c := range checks {
		res := "ok"
		if !c.OK() {
			failed++
			res = c.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Scope, c.ID, dash(c.Kind), res)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return summary(w, "check", len(checks), failed, 0)
}

func writeStats(w io.Writer, st *validate.Stats) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "GROUP\tSINK\tLINES\tPATH")
	for _, it := range st.Items {
		lines := "-"
		if it.Found {
			lines = humanize.Comma(int64(it.Lines))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Group, it.Sink, lines, dash(it.Path))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\t\n", humanize.Comma(int64(st.Total)))
	return tw.Flush()
}

func writeCombinedStats(w io.Writer, st *project.CombinedStats) error {
	fmt.Fprintln(w, "== Sources ==")
	if len(st.Sources.Items) == 0 {
		fmt.Fprintln(w, "no source definitions found")
	} else if err := writeStats(w, st.Sources); err != nil {
		return err
	}
	fmt.Fprintln(w, "\n== Sinks ==")
	return writeStats(w, st.Sinks)
}

func writeRoutes(w io.Writer, routes []project.Route) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "SCOPE\tGROUP\tSINK\tCONNECT\tKIND\tFORMAT\tTARGET")
	var failed int
	for _, r := range routes {
		if r.Error != "" {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\t%s\n", r.Scope, r.Group, r.Sink, r.Connect,
				failColor.Sprint("unbound"), r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.Scope, r.Group, r.Sink, r.Connect,
			r.Kind, dash(string(r.Format)), dash(r.Target))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return summary(w, "sinks", len(routes), failed, 0)
}

func writeSources(w io.Writer, rows []project.SourceRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tKIND\tTARGET\tFILE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, dash(r.Kind), dash(r.Target), r.File)
	}
	return tw.Flush()
}

func writeCheckResults(w io.Writer, results []project.CheckResult) error {
	for _, r := range results {
		if r.OK {
			fmt.Fprintf(w, "%-12s %s\n", r.Component, okColor.Sprint("ok"))
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", r.Component, failColor.Sprint("FAIL"))
		fmt.Fprintf(w, "  %s\n", r.Error)
	}
	return nil
}

func summary(w io.Writer, what string, total, errs, warns int) error {
	verdict := okColor.Sprint("PASS")
	if errs > 0 {
		verdict = failColor.Sprint("FAIL")
	}
	_, err := fmt.Fprintf(w, "%s: %s (%d item(s), %d error(s), %d warning(s))\n", what, verdict, total, errs, warns)
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
