package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/warpconf/internal/wpgen"
	"github.com/ajitpratap0/warpconf/pkg/config"
	"github.com/ajitpratap0/warpconf/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var (
		workRoot string
		logLevel string
	)
	fs := afero.NewOsFs()

	root := &cobra.Command{
		Use:           "wpgen",
		Short:         "wpgen - generator configuration tool",
		Long:          `wpgen manages the data generator configuration of a project: it writes and checks conf/wpgen.toml, resolves the output sink and cleans generated data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(fs, workRoot, logLevel, cmd.Flags().Changed("log-level"))
		},
	}
	root.PersistentFlags().StringVarP(&workRoot, "work-root", "w", ".", "Work root directory (contains conf/)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wpgen v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
		},
	})

	// conf
	confCmd := &cobra.Command{Use: "conf", Short: "Manage conf/wpgen.toml"}
	confCmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write the default generator config",
			RunE: func(cmd *cobra.Command, args []string) error {
				path, written, err := wpgen.New(fs).ConfInit(workRoot)
				if err != nil {
					return err
				}
				if written {
					fmt.Printf("wpgen: wrote %s\n", path)
				} else {
					fmt.Printf("wpgen: kept existing %s\n", path)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove the generator config",
			RunE: func(cmd *cobra.Command, args []string) error {
				path, removed, err := wpgen.New(fs).ConfClean(workRoot)
				if err != nil {
					return err
				}
				if removed {
					fmt.Printf("wpgen: removed %s\n", path)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "check",
			Short: "Load the generator config and resolve its output sink",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := wpgen.New(fs).ConfCheck(workRoot); err != nil {
					return err
				}
				fmt.Println("config file check ok!")
				return nil
			},
		},
	)
	root.AddCommand(confCmd)

	// data
	var (
		confName string
		local    bool
		asJSON   bool
	)
	dataCmd := &cobra.Command{Use: "data", Short: "Manage generated data"}
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the output file of a file sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := wpgen.New(fs).CleanOutput(workRoot, confName, local)
			if asJSON {
				return printJSON(rep)
			}
			if line, toStderr, ok := rep.Line(); ok {
				if toStderr {
					fmt.Fprintln(os.Stderr, line)
				} else {
					fmt.Println(line)
				}
			} else if rep.Note != nil {
				fmt.Printf("wpgen: %s\n", *rep.Note)
			}
			return nil
		},
	}
	cleanCmd.Flags().StringVarP(&confName, "conf-name", "c", config.WpGenFile, "Config file name under conf/")
	cleanCmd.Flags().BoolVar(&local, "local", true, "Only clean local file outputs")
	cleanCmd.Flags().BoolVar(&asJSON, "json", false, "Print the clean report as JSON")
	dataCmd.AddCommand(cleanCmd)
	root.AddCommand(dataCmd)

	// resolve
	var resolveConf string
	var resolveJSON bool
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the resolved output sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := wpgen.New(fs).LoadResolved(workRoot, resolveConf)
			if err != nil {
				return err
			}
			if resolveJSON {
				return printJSON(r.OutSink)
			}
			s := r.OutSink
			fmt.Printf("name:       %s\n", s.Name)
			fmt.Printf("connector:  %s\n", s.ConnectorID)
			fmt.Printf("kind:       %s\n", s.Kind)
			fmt.Printf("format:     %s\n", s.Format)
			p, err := json.Marshal(s.Params)
			if err != nil {
				return err
			}
			fmt.Printf("params:     %s\n", p)
			if path, ok := s.FilePath(workRoot); ok {
				fmt.Printf("file:       %s\n", path)
			}
			return nil
		},
	}
	resolveCmd.Flags().StringVarP(&resolveConf, "conf-name", "c", config.WpGenFile, "Config file name under conf/")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "Print the resolved sink as JSON")
	root.AddCommand(resolveCmd)

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

// initLogger applies --log-level when given, else the [logging] section of
// conf/wpgen.toml, else the logger defaults.
func initLogger(fs afero.Fs, workRoot, level string, explicit bool) error {
	cfg := logger.DefaultConfig()
	cfg.Level = level
	if !explicit {
		if wc, err := config.LoadWpGen(fs, config.WpGenPath(workRoot, config.WpGenFile)); err == nil {
			cfg = wc.LoggerConfig(workRoot)
		}
	}
	return logger.Init(cfg)
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
