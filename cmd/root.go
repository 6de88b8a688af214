// Package cmd wires the metaexport command-line interface.
package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "metaexport",
	Short: "Export LandIS metadata records to ISO 19139 XML",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file containing database credentials (ignored if missing)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the console logger shared by the subcommands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// loadEnvFile loads credentials from an optional .env file. A missing
// file is not an error; the existing environment is used as-is.
func loadEnvFile(log zerolog.Logger) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		log.Debug().Str("path", envFile).Msg("no .env file found, using existing environment")
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return err
	}
	log.Debug().Str("path", envFile).Msg("environment variables loaded")
	return nil
}
