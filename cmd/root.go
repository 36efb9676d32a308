package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Vitalii2594/zip-password-app/config"
	"github.com/Vitalii2594/zip-password-app/internal/archive"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/store"
)

var (
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "zip-password-app",
	Short: "Per-file password protected ZIP archives",
	Long: `zip-password-app turns files into standalone ZIP archives, one archive per file.

It runs either as an HTTP service that builds encrypted archives and serves each
one exactly once, or as a local tool that builds archives in memory and saves them.
Configuration is loaded from .env file or environment variables`,
	SilenceUsage: true,
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(storeInfoCmd)
	rootCmd.AddCommand(purgeCmd)

	rootCmd.PersistentFlags().String("backend", "", "Override STORE_BACKEND from config (local or s3)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	for _, c := range rootCmd.Commands() {
		c.SetUsageTemplate(usageTemplate)
	}
}

func getBackend(cmd *cobra.Command) string {
	backend, _ := cmd.Flags().GetString("backend")
	if backend != "" {
		return backend
	}
	return cfg.StoreBackend
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

// newLogger writes to LOG_FILE when set and to stderr otherwise, keeping
// stdout free for JSON results.
func newLogger(service string) (*logging.Logger, error) {
	output := []string{"stderr"}
	if cfg.LogFile != "" {
		output = []string{cfg.LogFile}
	}
	return logging.New(logging.LogConfig{
		ServiceName: service,
		LogLevel:    cfg.LogLevel,
		OutputPaths: output,
	})
}

func openStore(ctx context.Context, cmd *cobra.Command, logger *logging.Logger) (store.Store, error) {
	storeCfg := *cfg
	storeCfg.StoreBackend = getBackend(cmd)
	if err := storeCfg.Validate(); err != nil {
		return nil, err
	}
	return store.New(ctx, &storeCfg, logger)
}

func newBuilder() (archive.Builder, error) {
	return archive.NewBuilder(cfg.ProtectionMode, cfg.Encryption)
}

// readPassword takes --password, or prompts on an interactive terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required: pass --password or run interactively")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password is required")
	}
	return string(raw), nil
}

func warnWeakPassword(cmd *cobra.Command, password string) {
	if archive.PasswordStrength(password) == archive.StrengthWeak {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: weak password (fewer than 6 characters)")
	}
}

// confirmed asks question on stderr and reads the answer from the command input.
func confirmed(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s (y/N): ", question)
	var response string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
		return false
	}
	return slices.Contains([]string{"y", "yes"}, strings.ToLower(response))
}

const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
