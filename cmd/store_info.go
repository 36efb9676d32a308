package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vitalii2594/zip-password-app/internal/store"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var storeInfoCmd = &cobra.Command{
	Use:   "store-info",
	Short: "Get information about archives waiting in the store",
	Long: `Get information about the configured archive store including:
- Backend and location (temp directory or bucket prefix)
- Number of archives not yet downloaded
- Their total size
- Last modification date`,
	Example: `  # Inspect the configured store
  zip-password-app store-info

  # Inspect the S3 store with verbose output
  zip-password-app store-info --backend s3 --verbose`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runStoreInfo(cmd)
	},
}

func runStoreInfo(cmd *cobra.Command) {
	logger, err := newLogger("zip-cli")
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "store-info")
		return
	}
	defer logger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStore(ctx, cmd, logger)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "store-info")
		return
	}

	if isVerbose(cmd) {
		cmd.PrintErrf("Getting information for store: %s\n", st.Location())
	}

	info, err := store.Info(ctx, st)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "store-info")
		return
	}

	if err := utils.PrintJSON(cmd.OutOrStdout(), info); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "store-info")
		return
	}
}
