// Package commands implements the plughost command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath  string
	logLevel    string
	searchPaths []string
	formatName  string
)

var rootCmd = &cobra.Command{
	Use:   "plughost",
	Short: "plughost - real-time audio plugin host",
	Long: `plughost loads scripted audio effects, runs them as a serial rack and
drives the rack from an audio device or offline.

Engine settings come from a YAML file given with --config.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version shown by --version.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "engine configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringSliceVarP(&searchPaths, "path", "p", nil, "extra plugin search path (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&formatName, "format", "f", "jsfx", "plugin format")
}
