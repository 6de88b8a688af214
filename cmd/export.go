package cmd

import (
	"github.com/cranfield-landis/metaexport/internal/bundle"
	"github.com/cranfield-landis/metaexport/internal/config"
	"github.com/cranfield-landis/metaexport/internal/export"
	"github.com/cranfield-landis/metaexport/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportConfigPath string
	outputDir        string
	dryRun           bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export configured metadata records to ISO 19139 XML files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		if err := loadEnvFile(log); err != nil {
			return err
		}

		configs, err := config.Load(exportConfigPath)
		if err != nil {
			return err
		}
		log.Info().Int("count", len(configs)).Str("path", exportConfigPath).Msg("loaded metadata configurations")

		st, err := store.OpenFromEnv()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }() // safe to ignore

		runner := &export.Runner{
			Assembler: &bundle.Assembler{Gateway: st},
			OutDir:    outputDir,
			DryRun:    dryRun,
			Log:       log,
		}
		results, err := runner.Run(cmd.Context(), configs)
		if err != nil {
			return err
		}

		written := 0
		for _, res := range results {
			if res.Path != "" {
				written++
			}
		}
		if !dryRun {
			log.Info().Int("written", written).Msg("export completed")
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportConfigPath, "config", "config/metadata_ids.csv", "Path to CSV file listing metadata identifiers to export")
	exportCmd.Flags().StringVar(&outputDir, "output-dir", "output", "Directory where XML files will be written")
	exportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Fetch and build records without writing XML files")
	rootCmd.AddCommand(exportCmd)
}
