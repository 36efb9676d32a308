package cmd

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Vitalii2594/zip-password-app/internal/batch"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/internal/store"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var generateCmd = &cobra.Command{
	Use:   "generate [files...]",
	Short: "Build one protected archive per file into the store",
	Long: `Build one archive per file with the server pipeline and keep the archives
in the configured store (TEMP_DIR or the S3 bucket).

Each archive holds exactly one entry named after the source file and is stored
as <request-id>-<index>_<name>_protected.zip. The printed manifest lists the
locators that "fetch" and GET /download/{filename} accept.

If --password is not given, the password is read from the terminal.`,
	Example: `  # Protect two files
  zip-password-app generate report.docx photo.jpg --password "s3cret!"

  # Prompt for the password and show progress
  zip-password-app generate *.pdf --verbose

  # Keep the archives in S3
  zip-password-app generate data.csv --backend s3`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGenerate(cmd, args)
	},
}

func runGenerate(cmd *cobra.Command, args []string) {
	if err := utils.ValidatePaths(args); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}

	password, err := readPassword(cmd)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}
	warnWeakPassword(cmd, password)

	files, err := sourceFiles(args)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}

	logger, err := newLogger("zip-cli")
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}
	defer logger.Close()

	timeout, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()

	st, err := openStore(ctx, cmd, logger)
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}
	builder, err := newBuilder()
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}

	if isVerbose(cmd) {
		cmd.PrintErrf("Starting generate operation...\n")
		cmd.PrintErrf("  Files: %v\n", args)
		cmd.PrintErrf("  Store: %s\n", st.Location())
		cmd.PrintErrf("  Builder: %s\n", builder.Name())
	}

	orchestrator := &batch.Orchestrator{
		Builder: builder,
		Sink:    store.NewSink(st),
		Logger:  logger,
		Workers: cfg.BuildWorkers,
	}

	result, err := orchestrator.Run(ctx, models.ArchiveRequest{Files: files, Password: password}, progressPrinter(cmd))
	if err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}

	if err := utils.PrintJSON(cmd.OutOrStdout(), result); err != nil {
		utils.PrintError(cmd.OutOrStdout(), err, "generate")
		return
	}

	if result.Notice != "" {
		cmd.PrintErrln(result.Notice)
	}
	if isVerbose(cmd) {
		cmd.PrintErrf("Generated %d archive(s), %d failure(s), %s total\n",
			len(result.Archives), len(result.Failures), utils.FormatBytes(result.TotalSize()))
	}
}

func sourceFiles(paths []string) ([]models.SourceFile, error) {
	files := make([]models.SourceFile, 0, len(paths))
	for _, path := range paths {
		f, err := models.FileSource(path, mime.TypeByExtension(filepath.Ext(path)))
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func progressPrinter(cmd *cobra.Command) batch.ProgressFunc {
	if !isVerbose(cmd) {
		return nil
	}
	return func(percent int) {
		cmd.PrintErrf("  Progress: %d%%\n", percent)
	}
}

func init() {
	generateCmd.Flags().String("password", "", "Archive password (prompted when omitted)")
	generateCmd.Flags().Int("timeout", 600, "Timeout in seconds for the operation (default: 10 minutes)")
}
