package cmd

import (
	"github.com/cranfield-landis/metaexport/internal/cleanup"
	"github.com/cranfield-landis/metaexport/internal/store"
	"github.com/spf13/cobra"
)

var (
	cleanupConfigPath string
	cleanupCommit     bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Normalise smart quotes within configured metadata columns",
	Long: "Normalise smart quotes within configured metadata columns. " +
		"Defaults to a dry run; supply --commit to apply changes.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		if err := loadEnvFile(log); err != nil {
			return err
		}

		targets, err := cleanup.LoadTargets(cleanupConfigPath)
		if err != nil {
			return err
		}

		st, err := store.OpenFromEnv()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }() // safe to ignore

		runner := &cleanup.Runner{Store: st, Commit: cleanupCommit, Log: log}
		updated, err := runner.Run(cmd.Context(), targets)
		if err != nil {
			log.Error().Err(err).Msg("cleanup failed")
			return err
		}

		if cleanupCommit {
			log.Info().Int("rows", updated).Msg("cleanup finished")
		} else {
			log.Info().Msg("dry run completed, re-run with --commit after reviewing the proposed changes")
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupConfigPath, "config", "", "Path to JSON configuration file describing cleanup targets")
	cleanupCmd.Flags().BoolVar(&cleanupCommit, "commit", false, "Apply updates instead of running in dry-run mode")
	_ = cleanupCmd.MarkFlagRequired("config") // config has no sensible default
	rootCmd.AddCommand(cleanupCmd)
}
