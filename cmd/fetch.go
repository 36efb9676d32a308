package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [zipName]",
	Short: "Retrieve one stored archive and delete it from the store",
	Long: `Retrieve one archive from the store by the locator printed by "generate"
(the zipName field of POST /generate) and save it under its display name.

The archive is removed from the store after the transfer, whether or not it
succeeded, exactly like GET /download/{filename}.`,
	Example: `  # Fetch into the current directory
  zip-password-app fetch 1b4e28ba-2fa1-11d2-883f-0016d3cca427-0_report_protected.zip

  # Fetch into a folder without the confirmation prompt
  zip-password-app fetch <zipName> --destination downloads/ --confirm`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runFetch(cmd, args)
	},
}

func runFetch(cmd *cobra.Command, args []string) {
	locator := args[0]
	destination, _ := cmd.Flags().GetString("destination")
	confirm, _ := cmd.Flags().GetBool("confirm")

	if destination == "" {
		destination = "."
	}

	if !confirm {
		cmd.PrintErrf("Fetch operation summary:\n")
		cmd.PrintErrf("Backend: %s\n", getBackend(cmd))
		cmd.PrintErrf("Archive: %s\n", locator)
		cmd.PrintErrf("Destination: %s\n", destination)
		if !confirmed(cmd, "The archive is deleted from the store afterwards. Continue?") {
			cmd.PrintErrln("Fetch cancelled.")
			return
		}
	}

	logger, err := newLogger("zip-cli")
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "fetch")
		return
	}
	defer logger.Close()

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	st, err := openStore(ctx, cmd, logger)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "fetch")
		return
	}

	start := time.Now()
	obj, err := st.Take(ctx, locator)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "fetch")
		return
	}

	localPath, size, copyErr := saveObject(obj, destination)
	obj.Body.Close()
	if err := obj.Discard(); err != nil {
		cmd.PrintErrf("Warning: failed to delete %s from the store: %v\n", locator, err)
	}
	if copyErr != nil {
		utils.PrintError(cmd.OutOrStdout(), copyErr, "fetch")
		return
	}

	result := &models.FetchResult{
		Backend:          st.Backend(),
		Locator:          locator,
		LocalPath:        localPath,
		Size:             size,
		SizeHuman:        utils.FormatBytes(size),
		OperationTime:    utils.FormatTime(start),
		DownloadDuration: time.Since(start).String(),
	}
	if err := utils.PrintJSON(cmd.OutOrStdout(), result); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "fetch")
		return
	}

	if isVerbose(cmd) {
		cmd.PrintErrf("Fetched file: %s\n", localPath)
	}
}

func saveObject(obj *models.StoredObject, destination string) (string, int64, error) {
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", destination, err)
	}

	localPath := filepath.Join(destination, filepath.Base(obj.Name))
	f, err := os.Create(localPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	n, err := io.Copy(f, obj.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = utils.CleanupTempFile(localPath)
		return "", 0, fmt.Errorf("failed to save %s: %w", localPath, err)
	}
	return localPath, n, nil
}

func init() {
	fetchCmd.Flags().StringP("destination", "d", "", "Local destination directory (default: current directory)")
	fetchCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	fetchCmd.Flags().Int("timeout", 3600, "Timeout in seconds for the operation (default: 1 hour)")
}
