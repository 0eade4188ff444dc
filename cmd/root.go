package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gokaycavdar/go-urlguard/pkg/config"
	"github.com/gokaycavdar/go-urlguard/pkg/logging"
)

// Set through -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *logrus.Logger
}

var state = &app{v: config.NewViper()}

var rootCmd = newRootCommand(state)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "urlguard",
		Short:         "Heuristic URL threat analysis",
		Long:          "urlguard scores URLs with simulated security checks and deterministic risk heuristics, from the terminal or over HTTP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "config file (YAML)")
	pf.BoolP("quiet", "q", false, "quiet mode (no banner output)")
	pf.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "json", "log format (text, json)")
	pf.String("log-file", "", "log file path, rotated by size")

	_ = a.v.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("log.file", pf.Lookup("log-file"))

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newCheckCommand(a))
	root.AddCommand(newVersionCommand())

	root.SetVersionTemplate(fmt.Sprintf("urlguard %s (commit %s, built %s)\n", version, commit, buildDate))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(a.v, path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	if path != "" {
		logger.WithField("file", path).Debug("using config file")
	}
	return nil
}

func (a *app) quiet() bool {
	return a.v.GetBool("quiet")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
