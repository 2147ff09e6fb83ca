// ABOUTME: CLI commands for the optional Charm Cloud mirror.
// ABOUTME: Push copies local documents up, pull restores documents missing locally.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/fitlog/internal/charm"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror data to Charm Cloud",
	Long: `Copy your data files to Charm Cloud and restore them on another machine.

Local files are always the source of truth. With 'fitlog config set mirror
true' every saved document is pushed automatically; these commands work
either way.

COMMANDS:

  push     Upload every local document
  pull     Download documents that do not exist locally
  status   Show the Charm account and mirror state`,
}

var mirrorPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload every local document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.tracker.Save(cmd.Context())

		m, client, err := openMirror()
		if err != nil {
			return err
		}
		if client.IsReadOnly() {
			return charm.ErrReadOnly
		}

		client.SetAutoSync(false)
		n, err := m.PushAll()
		if err != nil {
			return fmt.Errorf("push failed after %d documents: %w", n, err)
		}
		if err := client.Sync(); err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		color.Green("✓ Pushed %d documents", n)
		return nil
	},
}

var mirrorPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download documents missing locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, _, err := openMirror()
		if err != nil {
			return err
		}
		restored, err := m.Pull()
		for _, rel := range restored {
			fmt.Printf("  %s\n", rel)
		}
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
		color.Green("✓ Restored %d documents", len(restored))
		return nil
	},
}

var mirrorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mirror state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sess.cfg.Mirror {
			color.Green("✓ Automatic mirroring is on")
		} else {
			fmt.Println("Automatic mirroring is off (fitlog config set mirror true)")
		}

		_, client, err := openMirror()
		if err != nil {
			return err
		}
		id, err := client.ID()
		if err != nil {
			color.Yellow("⚠ Not linked: %v", err)
		} else {
			fmt.Printf("Charm ID: %s\n", id)
		}
		if client.IsReadOnly() {
			color.Yellow("⚠ Read-only: another process holds the mirror database")
		}

		for _, domain := range domains {
			keys, err := client.Keys(domain + ":")
			if err != nil {
				return err
			}
			fmt.Printf("  %-10s %d documents\n", domain, len(keys))
		}
		return nil
	},
}

// openMirror returns the session mirror, opening the Charm client when automatic mirroring is off.
func openMirror() (*charm.Mirror, *charm.Client, error) {
	if sess.mirror != nil {
		return sess.mirror, sess.client, nil
	}
	client, err := charm.Open()
	if err != nil {
		return nil, nil, err
	}
	sess.client = client
	sess.mirror = charm.NewMirror(client, sess.tracker.Docs(), domains, sess.logger)
	return sess.mirror, client, nil
}

func init() {
	mirrorCmd.AddCommand(mirrorPushCmd)
	mirrorCmd.AddCommand(mirrorPullCmd)
	mirrorCmd.AddCommand(mirrorStatusCmd)
	rootCmd.AddCommand(mirrorCmd)
}
