package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete archives that were never downloaded",
	Long: `Delete archives older than the specified number of hours from the store.

Archives are normally removed when they are downloaded. This command cleans up
the ones nobody fetched, plus files left behind by interrupted transfers.

WARNING: This operation is irreversible. Deleted archives cannot be recovered.`,
	Example: `  # Delete archives older than a day
  zip-password-app purge --hours 24

  # Preview what would be deleted
  zip-password-app purge --hours 1 --dry-run

  # Purge the S3 store without a prompt
  zip-password-app purge --hours 72 --backend s3 --confirm`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runPurge(cmd)
	},
}

func runPurge(cmd *cobra.Command) {
	hours, _ := cmd.Flags().GetInt("hours")
	confirm, _ := cmd.Flags().GetBool("confirm")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if hours <= 0 {
		err := fmt.Errorf("hours must be greater than 0")
		utils.PrintError(cmd.OutOrStdout(), err, "purge")
		return
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	if !confirm && !dryRun {
		question := fmt.Sprintf("WARNING: This will permanently delete archives older than %d hours (%s) from the %s store. Are you sure?",
			hours, cutoff.Format("2006-01-02 15:04"), getBackend(cmd))
		if !confirmed(cmd, question) {
			cmd.PrintErrln("Operation cancelled.")
			return
		}
	}

	logger, err := newLogger("zip-cli")
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "purge")
		return
	}
	defer logger.Close()

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	st, err := openStore(ctx, cmd, logger)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "purge")
		return
	}

	if isVerbose(cmd) {
		cmd.PrintErrf("Deleting archives older than %d hours from: %s\n", hours, st.Location())
		if dryRun {
			cmd.PrintErrln("DRY RUN MODE: No archives will actually be deleted")
		}
	}

	purged, err := st.Purge(ctx, cutoff, dryRun)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "purge")
		return
	}

	result := &models.PurgeResult{
		Backend:       st.Backend(),
		HoursOld:      hours,
		DeletedFiles:  make([]string, 0, len(purged)),
		DeletedCount:  len(purged),
		OperationTime: utils.FormatTime(time.Now()),
		CutoffDate:    utils.FormatTime(cutoff),
		DryRun:        dryRun,
	}
	for _, a := range purged {
		result.DeletedFiles = append(result.DeletedFiles, a.Locator)
		result.TotalSizeBytes += a.Size
	}
	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)

	if err := utils.PrintJSON(cmd.OutOrStdout(), result); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "purge")
		return
	}

	if isVerbose(cmd) {
		cmd.PrintErrln("Purge operation completed successfully")
	}
}

func init() {
	purgeCmd.Flags().Int("hours", 0, "Delete archives older than this many hours (required)")
	if err := purgeCmd.MarkFlagRequired("hours"); err != nil {
		panic(err)
	}

	purgeCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	purgeCmd.Flags().Bool("dry-run", false, "Show what would be deleted without actually deleting")
	purgeCmd.Flags().Int("timeout", 1800, "Timeout in seconds for the operation (default: 30 minutes)")
}
