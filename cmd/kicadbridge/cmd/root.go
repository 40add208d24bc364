package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/kicadbridge/internal/config"
	"github.com/OpenTraceLab/kicadbridge/internal/logging"
)

var (
	// Global flags
	configFile string
	debug      bool
	logLevel   string
	logFormat  string
	logFile    string

	// Set by the persistent pre-run
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "kicadbridge",
	Short: "kicadbridge - KiCad board automation over MCP",
	Long: `kicadbridge edits and inspects KiCad boards and libraries:
  - an MCP server exposing board, library and validation tools
  - a worker that performs one board operation per process
  - command-line access to the same operations

Examples:
  kicadbridge serve                                   # MCP server on stdio
  kicadbridge board extract basic demo.kicad_pro      # Board summary via the worker
  kicadbridge board nets demo.kicad_pcb GND           # Net details, parsed locally
  kicadbridge validate symbol MyLib.kicad_sym         # Check a symbol library`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: processGlobalFlags,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: user config dir/kicadbridge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug mode")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "set the logging format [text, json]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
}

// processGlobalFlags loads the config and sets up logging. Flags win over
// the config file.
func processGlobalFlags(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	opts := logging.Options{
		Debug:  debug,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   logFile,
	}
	if cmd.Flags().Changed("log-level") {
		opts.Level = logLevel
	} else if debug {
		opts.Level = ""
	}
	if cmd.Flags().Changed("log-format") {
		opts.Format = logFormat
	}
	logCloser, err = logging.Setup(logrus.StandardLogger(), opts)
	return err
}
