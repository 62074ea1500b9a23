package main

import (
	"fmt"
	"os"
	"path/filepath"

	"chatbackup/pkg/auth"
	"chatbackup/pkg/config"
	"chatbackup/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Create, show and validate the chatbackup configuration file.

Configuration sources, highest priority first:
  1. Command line flags
  2. Environment variables (CHATBACKUP_*)
  3. .env in the working directory, then ~/.chatbackup.env
  4. Configuration file
  5. Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
}

const exampleConfig = `# chatbackup configuration

graph:
  # Graph API root; chats are read from <base_url>/me/chats/<id>/messages
  base_url: "https://graph.microsoft.com/beta"

  # Bearer token. Prefer 'chatbackup auth login' or CHATBACKUP_GRAPH_TOKEN.
  token: ""

  # Request timeout, 0 disables it
  timeout: 60s

# Request pacing
rate_limit:
  # 0 disables pacing
  requests_per_minute: 120
  burst_size: 10

output:
  # Backups go to <base_directory>/<target>
  base_directory: "out"

  # Stylesheet linked from index.html, relative to the target directory
  stylesheet: "../../messages.css"

render:
  title: "Chat backup"

  # Strip scripts and unsafe attributes from HTML bodies
  sanitize_html: false

logging:
  # debug, info, warn, error
  level: "info"

  # Optional JSON log file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ".chatbackup.yaml"
	if len(args) > 0 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store a token with 'chatbackup auth login --guide'")
	fmt.Println("2. Run 'chatbackup config validate' to check the configuration")
	fmt.Println("3. Start a backup with 'chatbackup --chat <id> --target <name>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	if display.Graph.Token != "" {
		display.Graph.Token = auth.MaskToken(display.Graph.Token)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Graph.Token == "" {
		warnings = append(warnings, "no Graph token configured, a stored token or the prompt will be used")
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		warnings = append(warnings, "request pacing is disabled")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintStats("Configuration summary", []ui.Stat{
		{Label: "Graph", Value: cfg.Graph.BaseURL},
		{Label: "Output directory", Value: cfg.Output.BaseDirectory},
		{Label: "Rate limit", Value: fmt.Sprintf("%d requests/minute", cfg.RateLimit.RequestsPerMinute)},
		{Label: "Log level", Value: cfg.Logging.Level},
	})
	return nil
}
