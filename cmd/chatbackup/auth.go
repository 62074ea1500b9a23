package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chatbackup/pkg/auth"
	"chatbackup/pkg/graph"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/ratelimit"
	"chatbackup/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	showGuide  bool
	skipVerify bool
	logoutAll  bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Graph tokens",
	Long: `Manage named Graph bearer tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - CHATBACKUP_GRAPH_TOKEN (read only)

Never share your tokens or credential files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a Graph token",
	Long: `Store a Graph bearer token under a name ("default" if omitted).

The token is read from a hidden prompt and checked against /me before it is
saved unless --skip-verify is given.`,
	Example: `  # Show how to get a token, then store it as "default"
  chatbackup auth login --guide

  # Store a second token
  chatbackup auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored tokens",
	Long: `Remove a stored token. Without a name you choose from the stored tokens;
--all removes every one of them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Long:  `List stored tokens, most recently saved first, with the token masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&showGuide, "guide", false, "explain how to obtain a Graph token first")
	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the token without calling /me")
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove all stored tokens")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if showGuide {
		auth.ShowTokenGuide(os.Stdout)
		fmt.Println()
	}

	name := auth.DefaultName
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		name = strings.TrimSpace(args[0])
	}

	token, err := readSecret("Graph token")
	if err != nil {
		return err
	}
	token = strings.TrimPrefix(token, "Bearer ")

	if !skipVerify {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Graph.Token = token
		client := graph.NewClient(&cfg.Graph, ratelimit.NewTokenBucket(0, 0), logger.GetLogger())

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		profile, err := client.FetchProfile(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
		}
		ui.PrintInfo("Signed in as", fmt.Sprintf("%s (%s)", profile.DisplayName, profile.UserPrincipalName))
	}

	if err := manager.Store(&auth.Credential{Name: name, Token: token}); err != nil {
		return err
	}

	ui.PrintSuccess("Token stored as " + name)
	if name != auth.DefaultName {
		fmt.Println("\nUse the --account flag to use this token:")
		fmt.Printf("  chatbackup --account %s\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var names []string
	switch {
	case len(args) > 0:
		names = []string{args[0]}
	default:
		creds, err := manager.List()
		if err != nil {
			return err
		}
		stored := storedNames(creds)
		if len(stored) == 0 {
			ui.PrintWarning("No stored tokens")
			return nil
		}
		if logoutAll {
			names = stored
			break
		}

		for i, name := range stored {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
		answer, err := promptLine(stdin, os.Stdout, "Remove which token")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(stored) {
			return fmt.Errorf("invalid selection %q", answer)
		}
		names = []string{stored[n-1]}
	}

	for _, name := range names {
		if err := manager.Delete(name); err != nil {
			if errors.Is(err, auth.ErrCredentialsNotFound) {
				return fmt.Errorf("no stored token named %q", name)
			}
			return err
		}
		ui.PrintSuccess("Removed " + name)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		ui.PrintWarning("No stored tokens")
		fmt.Println("\nStore one with:")
		fmt.Println("  chatbackup auth login --guide")
		return nil
	}

	stats := make([]ui.Stat, 0, len(creds))
	for _, cred := range creds {
		safe := auth.Sanitize(cred)
		value := safe.Token
		if !safe.LastModified.IsZero() {
			value += "  " + ui.Dim(safe.LastModified.Local().Format("2006-01-02 15:04"))
		}
		stats = append(stats, ui.Stat{Label: safe.Name, Value: value})
	}
	ui.PrintStats("Stored tokens", stats)
	return nil
}

// storedNames returns the names that can be deleted, leaving out the
// read-only environment token
func storedNames(creds []*auth.Credential) []string {
	var names []string
	for _, cred := range creds {
		if cred.Name == auth.EnvironmentName {
			continue
		}
		names = append(names, cred.Name)
	}
	return names
}
