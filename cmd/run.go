package cmd

import (
	"fmt"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// batchSetup binds the batch flags of the invoked command and runs sharedSetup.
func batchSetup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding batch flags: %w", err)
	}
	if err := sharedSetup(rootCtx, cmd, nil); err != nil {
		return err
	}
	if cfg.ProjectsFile == "" {
		return fmt.Errorf("--projects is required for %s", cmd.Name())
	}
	return nil
}

// runCmd analyzes every repository of a project list once.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze every repository of a project list and write summary.csv.",
	Long: `Process the repositories of a project list one at a time and write
<summary-dir>/<domain>/summary.csv with the regular-committer count of each
window and the downloads per day carried by the list.

A repository that fails is logged and skipped; the batch goes on.

Project lists are either a JSON mapping of {package: [repo, downloads]} or a
YAML list of {repo, downloads} entries.

Examples:
  # Run the python batch
  osshealth run --projects pypi_mapping.json --domain python

  # Keep summaries elsewhere and cache in SQLite
  osshealth run --projects projects.yaml --summary-dir reports --cache-backend sqlite`,
	Args:    cobra.NoArgs,
	PreRunE: batchSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runExecutor(core.ExecuteBatchReport); err != nil {
			contract.LogFatal("Cannot run batch", err)
		}
	},
}
