// Package cmd is the libcat command line.
//
// Settings resolve from, highest first: flags, LIBCAT_* environment
// variables, the config file (--config, LIBCAT_CONFIG_FILE or .libcat.yaml
// in the working directory) and built-in defaults.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/agentic-research/libcat/internal/config"
	"github.com/agentic-research/libcat/internal/logging"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:          "libcat",
	Short:        "Build a CDN library catalog from a GitHub repository tree",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .libcat.yaml, or LIBCAT_CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if envFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envFile != "" {
		v.SetConfigFile(envFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".libcat")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "reading config:", err)
		}
	}
}

func newLogger() *log.Logger {
	return logging.New(logging.Options{Verbose: verbose, JSON: jsonLogs, Output: os.Stderr})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
