package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sadopc/tracklet/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Test notification delivery and manage the webhook secret",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification to every configured sink",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return notifyTestRun()
	},
}

var notifySecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the webhook secret kept in the OS keyring",
}

var notifySecretSetCmd = &cobra.Command{
	Use:   "set <secret>",
	Short: "Store the webhook secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := notify.SetWebhookSecret(args[0]); err != nil {
			return err
		}
		ui.Success("Webhook secret stored in keyring")
		return nil
	},
}

var notifySecretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the webhook secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := notify.DeleteWebhookSecret(); err != nil {
			return err
		}
		ui.Success("Webhook secret removed")
		return nil
	},
}

func init() {
	notifySecretCmd.AddCommand(notifySecretSetCmd)
	notifySecretCmd.AddCommand(notifySecretDeleteCmd)
	notifyCmd.AddCommand(notifyTestCmd)
	notifyCmd.AddCommand(notifySecretCmd)
	rootCmd.AddCommand(notifyCmd)
}

func notifyTestRun() error {
	e, err := openEngine(false)
	if err != nil {
		return err
	}
	if !e.Scheduler.Granted() {
		return errors.New("notifications are disabled or no sink is configured (see notify.* config keys)")
	}
	if err := e.Scheduler.Notify("tracklet", "Notifications are working."); err != nil {
		return err
	}
	ui.Success("Test notification sent")
	return nil
}
