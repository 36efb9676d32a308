package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vitalii2594/zip-password-app/internal/blob"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var packCmd = &cobra.Command{
	Use:   "pack [files...]",
	Short: "Build compressed archives in memory and save them",
	Long: `Build one archive per file entirely in memory and save every archive into
the destination directory.

The archives use maximum compression but are NOT encrypted: the in-memory
builder cannot apply the password. Use "generate" for real protection.

A name that already exists in the destination gets a " (n)" suffix.`,
	Example: `  # Pack into the current directory
  zip-password-app pack notes.md slides.pdf --password "whatever"

  # Pack into a folder
  zip-password-app pack data/*.csv --password x --destination out/`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runPack(cmd, args)
	},
}

type packResult struct {
	*models.BatchResult
	Destination string   `json:"destination"`
	SavedFiles  []string `json:"saved_files"`
	Errors      []string `json:"errors,omitempty"`
}

func runPack(cmd *cobra.Command, args []string) {
	destination, _ := cmd.Flags().GetString("destination")
	if destination == "" {
		destination = "."
	}

	if err := utils.ValidatePaths(args); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}

	password, err := readPassword(cmd)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}

	files, err := sourceFiles(args)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}

	logger, err := newLogger("zip-cli")
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}
	defer logger.Close()

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	registry := blob.NewRegistry()
	defer registry.ReleaseAll()

	pipeline := blob.NewPipeline(registry, logger)
	result, err := pipeline.Generate(ctx, files, password, progressPrinter(cmd))
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}

	trigger := &blob.DirTrigger{Dir: destination}
	out := packResult{BatchResult: result, Destination: destination}
	if err := blob.DownloadAll(ctx, registry, result.Archives, trigger); err != nil {
		out.Errors = append(out.Errors, err.Error())
	}
	out.SavedFiles = trigger.Saved()

	if err := utils.PrintJSON(cmd.OutOrStdout(), out); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "pack")
		return
	}

	cmd.PrintErrln(result.Notice)
}

func init() {
	packCmd.Flags().String("password", "", "Password (accepted but not applied; prompted when omitted)")
	packCmd.Flags().StringP("destination", "d", "", "Directory to save archives into (default: current directory)")
	packCmd.Flags().Int("timeout", 600, "Timeout in seconds for the operation (default: 10 minutes)")
}
