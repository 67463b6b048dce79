package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/osshealth/core"
	"github.com/huangsam/osshealth/internal/contract"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// scheduleCmd repeats the batch run on a cron spec until interrupted.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Repeat the batch run on a cron schedule.",
	Long: `Run the same batch as 'osshealth run' on a cron spec. A tick that
fires while the previous batch is still running is skipped, so batches
never overlap.

The cache makes later batches cheap: only commits newer than the cached
snapshot are fetched.

Examples:
  # Nightly batch
  osshealth schedule --projects pypi_mapping.json --cron "0 3 * * *"

  # Hourly batch with metrics for the node-exporter textfile collector
  osshealth schedule --projects projects.yaml --cron @hourly --metrics-file /var/lib/node_exporter/osshealth.prom`,
	Args:    cobra.NoArgs,
	PreRunE: batchSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runSchedule(ctx, cfg.CronSpec, func(ctx context.Context) {
			if _, err := core.ExecuteBatch(ctx, cfg, deps); err != nil {
				contract.LogWarn("Scheduled batch failed", err)
			}
			if err := deps.Metrics.WriteToTextfile(cfg.MetricsFile); err != nil {
				contract.LogWarn("Cannot write metrics textfile", err)
			}
		})
	},
}

// runSchedule runs job on spec until ctx is done, then waits for the running job.
func runSchedule(ctx context.Context, spec string, job func(context.Context)) error {
	logger := cron.VerbosePrintfLogger(contract.Logger)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		return err
	}

	contract.Logger.WithField("cron", spec).Info("Scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	contract.Logger.Info("Scheduler stopped")
	return nil
}
