package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chatbackup/pkg/auth"
	"chatbackup/pkg/backup"
	"chatbackup/pkg/config"
	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/ratelimit"
	"chatbackup/pkg/storage"
	"chatbackup/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Backup command flags
	chatFlag      string
	targetFlag    string
	tokenFlag     string
	accountFlag   string
	baseURLFlag   string
	outputFlag    string
	rateLimitFlag int
	sanitizeFlag  bool
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up a chat into a new target directory",
	Long: `Back up every message of a chat, its inline images and a readable transcript.

The backup is written to <output>/<target>. The steps run strictly one after
another and the first failure stops the run:

  1. create the target directory
  2. store every page of messages, newest first
  3. download every image hosted on the Graph API exactly once
  4. render index.html from the stored pages

The bearer token comes from --account, --token, CHATBACKUP_GRAPH_TOKEN, the
configuration file, the stored default credential, or a hidden prompt.`,
	Example: `  # Prompt for everything
  chatbackup

  # Fully non-interactive
  chatbackup backup --chat '19:abc@thread.v2' --target team --account work

  # Sanitize message bodies and slow down requests
  chatbackup backup --chat '19:abc@thread.v2' --target team --sanitize --rate-limit 30`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	addBackupFlags(backupCmd)
}

// addBackupFlags registers the backup flags on cmd. The root command carries
// them too so a bare invocation runs a backup.
func addBackupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&chatFlag, "chat", "", "chat ID, e.g. 19:...@thread.v2")
	cmd.Flags().StringVarP(&targetFlag, "target", "t", "", "target directory name under the output directory")
	addGraphFlags(cmd)
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "base output directory (default \"out\")")
	cmd.Flags().IntVar(&rateLimitFlag, "rate-limit", 120, "Graph requests per minute, 0 disables pacing")
	cmd.Flags().BoolVar(&sanitizeFlag, "sanitize", false, "sanitize HTML message bodies before rendering")
}

// addGraphFlags registers the flags every command talking to Graph needs
func addGraphFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tokenFlag, "token", "", "Graph bearer token")
	cmd.Flags().StringVarP(&accountFlag, "account", "a", "", "use a specific stored token")
	cmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Graph API base URL")
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	chatID := strings.TrimSpace(chatFlag)
	if chatID == "" {
		if chatID, err = promptLine(stdin, os.Stdout, "Chat ID"); err != nil {
			return err
		}
	}

	name := strings.TrimSpace(targetFlag)
	if name == "" {
		if name, err = promptLine(stdin, os.Stdout, "Target name"); err != nil {
			return err
		}
	}
	target := filepath.Join(cfg.Output.BaseDirectory, name)

	client, err := newGraphClient(cfg, log)
	if err != nil {
		return err
	}

	b, err := backup.New(cfg, client, log)
	if err != nil {
		return err
	}

	ui.PrintInfo("Chat", chatID)
	ui.PrintInfo("Target", target)

	ctx, stop := withSignals(cmd.Context())
	defer stop()

	summary, err := b.Run(ctx, chatID, target)
	if err != nil {
		log.WithError(err).WithField("chat", chatID).Error("Backup failed")
		return err
	}

	printBackupSummary(summary)
	return nil
}

// newGraphClient resolves the bearer token and builds a paced Graph client
func newGraphClient(cfg *config.Config, log logger.Logger) (*graph.Client, error) {
	var creds credentialSource
	if manager, err := auth.NewManager(); err == nil {
		creds = manager
	} else {
		log.WithError(err).Warn("Credential store unavailable")
	}

	token, source, err := resolveToken(cfg.Graph.Token, accountFlag, creds, func() (string, error) {
		ui.PrintWarning("No stored token found, run 'chatbackup auth login --guide' to save one")
		return readSecret("Graph token")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get a Graph token: %w", err)
	}
	log.WithField("source", source).Info("Using Graph token")

	cfg.Graph.Token = token
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	return graph.NewClient(&cfg.Graph, limiter, log), nil
}

func printBackupSummary(s *backup.Summary) {
	ui.PrintSuccess("[BACKUP COMPLETED]")
	ui.PrintStats("Summary", []ui.Stat{
		{Label: "Target", Value: s.Target},
		{Label: "Pages", Value: fmt.Sprintf("%d written, %d fetched", s.Pages.Written, s.Pages.Fetched)},
		{Label: "Messages", Value: fmt.Sprintf("%d", s.Pages.Messages)},
		{Label: "Images", Value: fmt.Sprintf("%d downloaded, %s", s.Images.Downloaded, formatBytes(s.Images.Bytes))},
		{Label: "Rendered", Value: fmt.Sprintf("%d (%d bots, %d skipped)", s.Transcript.Rendered, s.Transcript.Bots, s.Transcript.Skipped)},
		{Label: "Transcript", Value: filepath.Join(s.Target, storage.TranscriptFile)},
		{Label: "Duration", Value: s.Duration.Round(time.Millisecond).String()},
	})
}

// formatBytes formats a byte count with a binary unit
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// withSignals cancels ctx on SIGINT or SIGTERM
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
