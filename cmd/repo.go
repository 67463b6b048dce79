package cmd

import (
	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/spf13/cobra"
)

// repoCmd analyzes a single repository.
var repoCmd = &cobra.Command{
	Use:   "repo <owner/name>",
	Short: "Show the regular committers of one repository per day-window.",
	Long: `Fetch the commit history of a repository, merge it with the cached
snapshot, and classify every author as regular or irregular over each
trailing day-window.

An author is regular in a window when they committed in more than half of
the 30-day buckets of the repository lifetime, and more often than there
are buckets.

Examples:
  # Analyze the default branch (main, then master)
  osshealth repo psf/requests

  # Analyze a given branch with custom windows
  osshealth repo pallets/flask --branch stable --windows 720,360,90

  # Read a local clone instead of the GitHub API
  osshealth repo psf/requests --source git --clones-root ~/src

  # Export the report as JSON
  osshealth repo psf/requests --output json --output-file requests.json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runExecutor(core.ExecuteRepoReport); err != nil {
			contract.LogFatal("Cannot analyze repository", err)
		}
	},
}
