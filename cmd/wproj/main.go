package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/warpconf/internal/project"
	"github.com/ajitpratap0/warpconf/internal/topology"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/metrics"
	"github.com/ajitpratap0/warpconf/pkg/validate"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var (
		workRoot    string
		logLevel    string
		asJSON      bool
		metricsFile string
	)
	fs := afero.NewOsFs()
	open := func() *project.Project { return project.Open(fs, workRoot) }

	root := &cobra.Command{
		Use:           "wproj",
		Short:         "wproj - project configuration tool",
		Long:          `wproj inspects a project: it lints and checks connector definitions, validates sink groups against their expected ratios and reports sink output statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(fs, workRoot, logLevel, cmd.Flags().Changed("log-level"))
		},
	}
	root.PersistentFlags().StringVarP(&workRoot, "work-root", "w", ".", "Work root directory")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error); defaults to the engine config")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of tables")
	root.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Also write Prometheus metrics to this file (lint, validate, stat)")

	// writeMetrics exports what observe recorded when --metrics-file is set
	writeMetrics := func(observe func(*metrics.Collector)) error {
		if metricsFile == "" {
			return nil
		}
		c := metrics.NewCollector()
		observe(c)
		return c.WriteTextfile(fs, metricsFile)
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wproj v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "Show the project's well-known paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := open().Paths()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, paths)
			}
			return writePaths(os.Stdout, paths)
		},
	})

	// connectors
	connCmd := &cobra.Command{Use: "connectors", Aliases: []string{"conn"}, Short: "Inspect connector definitions"}
	connCmd.AddCommand(
		&cobra.Command{
			Use:   "lint",
			Short: "Check connector ids and definition files",
			RunE: func(cmd *cobra.Command, args []string) error {
				p := open()
				rows, err := p.LintRows()
				if err != nil {
					return err
				}
				if err := writeMetrics(func(c *metrics.Collector) { c.ObserveLint(rows) }); err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(os.Stdout, rows); err != nil {
						return err
					}
				} else if err := writeLintRows(os.Stdout, rows); err != nil {
					return err
				}
				return p.LintConnectors()
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List connector definitions",
			RunE: func(cmd *cobra.Command, args []string) error {
				recs, err := open().Connectors()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(os.Stdout, recs)
				}
				return writeConnectors(os.Stdout, workRoot, recs)
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Check connector parameters against their kind",
			RunE: func(cmd *cobra.Command, args []string) error {
				checks, err := open().CheckConnectors()
				if err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(os.Stdout, checks); err != nil {
						return err
					}
				} else if err := writeConnectorChecks(os.Stdout, checks); err != nil {
					return err
				}
				return project.CheckFailure(checks)
			},
		},
		&cobra.Command{
			Use:   "kinds",
			Short: "List the connector kinds that can be checked",
			Run: func(cmd *cobra.Command, args []string) {
				sinks, sources := open().KnownKinds()
				fmt.Println("Sink kinds:")
				for _, k := range sinks {
					fmt.Printf("  - %s\n", k)
				}
				fmt.Println("\nSource kinds:")
				for _, k := range sources {
					fmt.Printf("  - %s\n", k)
				}
			},
		},
	)
	root.AddCommand(connCmd)

	// validate / stat share the sink filters
	var (
		filter    topology.Filter
		inputCnt  uint64
		statsFile string
		verbose   bool
	)
	addFilterFlags := func(c *cobra.Command) {
		c.Flags().StringArrayVarP(&filter.Groups, "group", "g", nil, "Only this sink group (repeatable)")
		c.Flags().StringArrayVarP(&filter.Sinks, "sink", "s", nil, "Only this sink (repeatable)")
		c.Flags().StringVar(&filter.PathLike, "path-like", "", "Only sinks whose group file or output path contains this text")
	}

	validateCmd := &cobra.Command{Use: "validate", Short: "Validate sink groups"}
	sinkFileCmd := &cobra.Command{
		Use:   "sink-file",
		Short: "Validate sink output ratios against their expectations",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := project.ValidateOptions{Filter: filter, StatsFile: statsFile}
			if cmd.Flags().Changed("input-cnt") {
				opts.InputCount = &inputCnt
			}
			v, err := open().Validate(opts)
			if err != nil {
				return err
			}
			if err := writeMetrics(func(c *metrics.Collector) {
				c.ObserveValidation(v.Groups, v.Stats, opts.InputCount, v.Report)
			}); err != nil {
				return err
			}
			if asJSON {
				if err := validate.WriteJSON(os.Stdout, v.Report); err != nil {
					return err
				}
			} else {
				validate.WriteHeadline(os.Stdout, v.Report)
				if err := validate.WriteIssues(os.Stdout, v.Report); err != nil {
					return err
				}
				if err := validate.WriteTables(os.Stdout, v.Groups, v.Stats, opts.InputCount, verbose); err != nil {
					return err
				}
			}
			return v.Failure()
		},
	}
	addFilterFlags(sinkFileCmd)
	sinkFileCmd.Flags().Uint64Var(&inputCnt, "input-cnt", 0, "Total input lines; overrides every group total")
	sinkFileCmd.Flags().StringVar(&statsFile, "stats-file", "", "Read sink statistics from this JSON file")
	sinkFileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show kind, format and output path")
	validateCmd.AddCommand(sinkFileCmd)
	root.AddCommand(validateCmd)

	statCmd := &cobra.Command{Use: "stat", Short: "Report sink statistics"}
	statSinkCmd := &cobra.Command{
		Use:   "sink-file",
		Short: "Count the lines of file sink outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := open()
			groups, err := p.Groups(filter)
			if err != nil {
				return err
			}
			st, err := p.CountStats(groups)
			if err != nil {
				return err
			}
			if err := writeMetrics(func(c *metrics.Collector) { c.ObserveStats(st) }); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, st)
			}
			return writeStats(os.Stdout, st)
		},
	}
	addFilterFlags(statSinkCmd)
	statSrcCmd := &cobra.Command{
		Use:   "src-file",
		Short: "Count the lines of file source inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open().SourceStats()
			if err != nil {
				return err
			}
			if err := writeMetrics(func(c *metrics.Collector) { c.ObserveStats(st) }); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, st)
			}
			return writeStats(os.Stdout, st)
		},
	}
	statFileCmd := &cobra.Command{
		Use:   "file",
		Short: "Count the lines of file sources and file sinks together",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open().Stats(filter)
			if err != nil {
				return err
			}
			if err := writeMetrics(func(c *metrics.Collector) {
				c.ObserveStats(st.Sources)
				c.ObserveStats(st.Sinks)
			}); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, st)
			}
			return writeCombinedStats(os.Stdout, st)
		},
	}
	addFilterFlags(statFileCmd)
	statCmd.AddCommand(statSinkCmd, statSrcCmd, statFileCmd)
	root.AddCommand(statCmd)

	// sinks / sources
	sinksCmd := &cobra.Command{Use: "sinks", Short: "Inspect sink groups and their routes"}
	sinkRouteCmd := &cobra.Command{
		Use:   "route",
		Short: "Show where the matching sinks write",
		RunE: func(cmd *cobra.Command, args []string) error {
			routes, err := open().Routes(filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, routes)
			}
			return writeRoutes(os.Stdout, routes)
		},
	}
	addFilterFlags(sinkRouteCmd)
	sinksCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every sink of every group",
			RunE: func(cmd *cobra.Command, args []string) error {
				routes, err := open().Routes(topology.Filter{})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(os.Stdout, routes)
				}
				return writeRoutes(os.Stdout, routes)
			},
		},
		sinkRouteCmd,
	)
	root.AddCommand(sinksCmd)

	sourcesCmd := &cobra.Command{Use: "sources", Short: "Inspect source definitions"}
	sourcesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List source definitions and what they read",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := open().Sources()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(os.Stdout, rows)
			}
			return writeSources(os.Stdout, rows)
		},
	})
	root.AddCommand(sourcesCmd)

	// check
	var (
		what     string
		failFast bool
	)
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check engine config, connectors and sink groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			comps, err := project.ParseComponents(what)
			if err != nil {
				return err
			}
			results, checkErr := open().Check(comps, failFast)
			if asJSON {
				if err := writeJSON(os.Stdout, results); err != nil {
					return err
				}
			} else if err := writeCheckResults(os.Stdout, results); err != nil {
				return err
			}
			return checkErr
		},
	}
	checkCmd.Flags().StringVar(&what, "what", "all", "Components to check: conf, sources, connectors, sinks (comma separated)")
	checkCmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failing component")
	root.AddCommand(checkCmd)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		if logger.Debugging() {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
