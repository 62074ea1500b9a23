package main

import (
	"path/filepath"
	"strconv"

	"chatbackup/pkg/backup"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/storage"
	"chatbackup/pkg/ui"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <target>",
	Short: "Render index.html again for an existing backup",
	Long: `Render the transcript of an existing backup directory from its stored pages
and image index. Nothing is downloaded except the signed-in profile, which
decides which messages are shown on the right.`,
	Example: `  chatbackup render out/team
  chatbackup render out/team --sanitize`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addGraphFlags(renderCmd)
	renderCmd.Flags().BoolVar(&sanitizeFlag, "sanitize", false, "sanitize HTML message bodies before rendering")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	target := filepath.Clean(args[0])

	client, err := newGraphClient(cfg, log)
	if err != nil {
		return err
	}

	b, err := backup.New(cfg, client, log)
	if err != nil {
		return err
	}

	ctx, stop := withSignals(cmd.Context())
	defer stop()

	summary, err := b.Render(ctx, target)
	if err != nil {
		log.WithError(err).WithField("target", target).Error("Render failed")
		return err
	}

	ui.PrintSuccess("[TRANSCRIPT RENDERED]")
	ui.PrintStats("Summary", []ui.Stat{
		{Label: "Pages", Value: strconv.Itoa(summary.Pages)},
		{Label: "Rendered", Value: strconv.Itoa(summary.Rendered)},
		{Label: "Bots", Value: strconv.Itoa(summary.Bots)},
		{Label: "Skipped", Value: strconv.Itoa(summary.Skipped)},
		{Label: "Images", Value: strconv.Itoa(summary.Images)},
		{Label: "Transcript", Value: filepath.Join(target, storage.TranscriptFile)},
	})
	return nil
}
