package main

import (
	"fmt"
	"os"
	"runtime"

	"chatbackup/pkg/config"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
)

// rootCmd runs a backup when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "chatbackup",
	Short: "Archive a Microsoft Teams chat to disk",
	Long: `chatbackup downloads a chat through the Microsoft Graph API and keeps it
as plain files:

  messages-00000.json ...  every page of messages as returned by Graph
  image-00000 ...          every inline image, downloaded once
  images.json              which remote image became which local file
  index.html               a readable transcript in chronological order

Run without a subcommand to start a backup. Missing values are prompted for.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetNoColor(true)
		}
		if quiet {
			ui.SetQuietMode(true)
			if !cmd.Flags().Changed("log-level") {
				logLevel = "error"
			}
		}

		if cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
	RunE: runBackup,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.chatbackup.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	addBackupFlags(rootCmd)

	rootCmd.SetVersionTemplate(`chatbackup {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the flags the user actually set
// layered on top, then initializes the global logger from it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("log-level") || quiet {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if set.Lookup("token") != nil && tokenFlag != "" {
		flags["token"] = tokenFlag
	}
	if set.Lookup("base-url") != nil && baseURLFlag != "" {
		flags["base-url"] = baseURLFlag
	}
	if set.Lookup("output") != nil && outputFlag != "" {
		flags["output"] = outputFlag
	}
	if set.Changed("rate-limit") {
		flags["rate-limit"] = rateLimitFlag
	}
	if set.Changed("sanitize") {
		flags["sanitize"] = sanitizeFlag
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"version": version,
		"command": cmd.Name(),
	}).Debug("chatbackup starting")

	return cfg, nil
}
